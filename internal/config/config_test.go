package config

import (
	"testing" // Go's testing package
	"time"    // Timestamps

	"github.com/go-sql-driver/mysql"      // MySQL DSN formatting
	"github.com/jackc/pgx/v4"             // Postgres driver
	"github.com/stretchr/testify/assert"  // Assertions
	"github.com/stretchr/testify/require" // Fatal assertions
)

func TestDSNPerDriver(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "postgres default port",
			cfg:  Config{DBDriver: DriverPostgres, DBHost: "db", DBUser: "srq", DBPassword: "pw", DBName: "srq", DBSSLMode: "disable"},
			want: "host=db user=srq password=pw dbname=srq port=5432 sslmode=disable TimeZone=UTC",
		},
		{
			name: "postgres quoted password",
			cfg:  Config{DBDriver: DriverPostgres, DBHost: "db", DBPort: "5433", DBUser: "srq", DBPassword: "it's a pw", DBName: "srq", DBSSLMode: "disable"},
			want: `host=db user=srq password='it\'s a pw' dbname=srq port=5433 sslmode=disable TimeZone=UTC`,
		},
		{
			name: "sqlite",
			cfg:  Config{DBDriver: DriverSQLite, DBPath: "/tmp/srq.db"},
			want: "/tmp/srq.db",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("ML_TIMEOUT", "3s")
	t.Setenv("STATS_REFRESH", "")
	cfg := LoadConfig()
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 3*time.Second, cfg.MLTimeout)
	assert.Equal(t, "@every 5m", cfg.StatsRefresh)
}

func TestPostgresURL(t *testing.T) {
	cfg := Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "srq", DBSSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5432/srq?sslmode=require", cfg.PostgresURL())
}

const awkwardPassword = "p@ss/w#rd ?x'\\"

func TestPostgresDSNsRoundTripSpecialPassword(t *testing.T) {
	cfg := Config{DBDriver: DriverPostgres, DBHost: "db.internal", DBUser: "app", DBPassword: awkwardPassword, DBName: "srq", DBSSLMode: "disable"}

	for name, dsn := range map[string]string{"keyword": cfg.DSN(), "url": cfg.PostgresURL()} {
		t.Run(name, func(t *testing.T) {
			pc, err := pgx.ParseConfig(dsn)
			require.NoError(t, err, dsn)
			assert.Equal(t, "db.internal", pc.Host)
			assert.Equal(t, uint16(5432), pc.Port)
			assert.Equal(t, "app", pc.User)
			assert.Equal(t, awkwardPassword, pc.Password)
			assert.Equal(t, "srq", pc.Database)
		})
	}
}

func TestMySQLDSNRoundTrip(t *testing.T) {
	cfg := Config{DBDriver: DriverMySQL, DBHost: "db", DBPort: "3307", DBUser: "srq", DBPassword: "p@ss/w:rd", DBName: "srq"}
	mc, err := mysql.ParseDSN(cfg.DSN())
	require.NoError(t, err)
	assert.Equal(t, "srq", mc.User)
	assert.Equal(t, "p@ss/w:rd", mc.Passwd)
	assert.Equal(t, "tcp", mc.Net)
	assert.Equal(t, "db:3307", mc.Addr)
	assert.Equal(t, "srq", mc.DBName)
	assert.True(t, mc.ParseTime)
}
