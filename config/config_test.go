package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("API_URL", "")
	v := viper.New()
	v.Set("API_URL", "http://api.example.test/")

	cfg := LoadConfigFrom(v)

	assert.Equal(t, "http://api.example.test", cfg.APIURL)
	assert.Equal(t, int64(10<<20), cfg.Limits.CreateImageMax)
	assert.Equal(t, int64(5<<20), cfg.Limits.EditImageMax)
	assert.Equal(t, 5*time.Minute, cfg.CacheMaxAge)
	assert.Equal(t, "log", cfg.Notify.Backend)
	assert.Equal(t, 3500, cfg.DevServer.Port)
}

func TestLoadConfigUnifiedImageLimit(t *testing.T) {
	t.Setenv("EVENT_IMAGE_MAX", "2097152")

	cfg := LoadConfigFrom(viper.New())

	assert.Equal(t, int64(2<<20), cfg.Limits.CreateImageMax)
	assert.Equal(t, int64(2<<20), cfg.Limits.EditImageMax)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "15s")
	t.Setenv("DEVSERVER_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg := LoadConfigFrom(viper.New())

	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.DevServer.AllowedOrigins)
}
