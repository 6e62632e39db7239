package scoring

import (
	"context" // Request contexts
	"errors"  // Error values
	"fmt"     // Formatting
	"time"    // Timestamps

	"github.com/goccy/go-json"    // JSON encoding/decoding
	"github.com/valyala/fasthttp" // HTTP client
)

// Prediction is the filtered reply of the prediction service.
type Prediction struct {
	FinalClass string  `json:"final_class"`
	Confidence float64 `json:"confidence"`
}

// Predictor scores a completed questionnaire.
type Predictor interface {
	Predict(ctx context.Context, answers []int, age int, gender string) (*Prediction, error)
}

var (
	ErrNotConfigured = errors.New("prediction endpoint is not configured")
	ErrBadResponse   = errors.New("prediction service returned an unusable response")
)

// HTTPPredictor calls the external prediction service over HTTP.
type HTTPPredictor struct {
	endpoint string
	timeout  time.Duration
	catalog  *Catalog
	client   *fasthttp.Client
}

// NewHTTPPredictor creates a predictor posting to endpoint.
func NewHTTPPredictor(endpoint string, timeout time.Duration, catalog *Catalog) *HTTPPredictor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPPredictor{
		endpoint: endpoint,
		timeout:  timeout,
		catalog:  catalog,
		client: &fasthttp.Client{
			Name:                     "srq-assessment",
			NoDefaultUserAgentHeader: true,
			MaxConnsPerHost:          64,
			ReadTimeout:              timeout,
			WriteTimeout:             timeout,
		},
	}
}

// Predict posts the named-field payload and returns final_class and confidence.
func (p *HTTPPredictor) Predict(ctx context.Context, answers []int, age int, gender string) (*Prediction, error) {
	if p.endpoint == "" {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(p.catalog.Payload(answers, age, gender))
	if err != nil {
		return nil, fmt.Errorf("encode prediction payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBody(body)

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err := p.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("call prediction service: %w", err)
	}

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrBadResponse, code)
	}
	return decodePrediction(resp.Body())
}

// decodePrediction keeps only final_class and confidence from the reply.
// Confidence given as a percentage is scaled down to [0,1].
func decodePrediction(body []byte) (*Prediction, error) {
	var raw struct {
		FinalClass string   `json:"final_class"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if raw.FinalClass == "" {
		return nil, fmt.Errorf("%w: missing final_class", ErrBadResponse)
	}
	conf := 0.0
	if raw.Confidence != nil {
		conf = *raw.Confidence
	}
	conf, err := NormalizeConfidence(conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return &Prediction{FinalClass: raw.FinalClass, Confidence: conf}, nil
}

// ErrConfidence reports a confidence outside [0,1] that is not a percentage either.
var ErrConfidence = errors.New("confidence must be between 0 and 1")

// NormalizeConfidence scales a percentage in (1,100] down to [0,1].
func NormalizeConfidence(conf float64) (float64, error) {
	if conf > 1 && conf <= 100 {
		conf /= 100
	}
	if conf < 0 || conf > 1 {
		return 0, fmt.Errorf("%w, got %v", ErrConfidence, conf)
	}
	return conf, nil
}
