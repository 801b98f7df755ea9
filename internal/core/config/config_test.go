package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadYAML(t *testing.T) {
	path := writeYAML(t, `
app:
  http:
    cors_origins: [http://localhost:3000]
jwt:
  secret: s3cret
db:
  driver: postgres
  dsn: host=db user=app
  migrate: goose
storage:
  driver: s3
  s3:
    bucket: images
    access_key: ak
`)
	c, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", c.JWT.Secret)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, "goose", c.DB.Migrate)
	assert.Equal(t, "images", c.Storage.S3.Bucket)
	assert.Equal(t, "ak", c.Storage.S3.AccessKey)
	assert.Equal(t, []string{"http://localhost:3000"}, c.App.HTTP.CORSOrigins)
	// defaults fill the rest
	assert.Equal(t, 8080, c.App.HTTP.Port)
	assert.Equal(t, 30, c.DB.WaitAttempts)
	assert.Equal(t, int64(16<<20), c.Limits.BodyBytes)
	assert.Equal(t, 2000.0, c.Limits.GlobalRPS)
	assert.Equal(t, "/media", c.Storage.Local.BaseURL)
}

func TestReadEnvOverrides(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "from-env")
	t.Setenv("APP_DB_DSN", "file.db")
	t.Setenv("APP_REDIS_ENABLE", "true")

	c, err := Read(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.JWT.Secret)
	assert.Equal(t, "file.db", c.DB.DSN)
	assert.True(t, c.Redis.Enable)
	assert.Equal(t, "sqlite", c.DB.Driver)
}

func TestReadRequiresSecret(t *testing.T) {
	_, err := Read(writeYAML(t, "app:\n  name: x\n"))
	assert.ErrorContains(t, err, "jwt.secret")
}

func TestReadRejectsBrokenYAML(t *testing.T) {
	_, err := Read(writeYAML(t, "jwt: [unclosed"))
	assert.Error(t, err)
}
