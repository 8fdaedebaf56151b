package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"john", "doe", "test"}, cfg.Screening.Denylist)
	assert.Equal(t, []string{"AF", "IR", "KP", "SY", "YE", "MM"}, cfg.Risk.HighRiskCountries)
	assert.Equal(t, 15*time.Minute, cfg.Screening.CacheTTL)
	assert.Equal(t, 100, cfg.KYC.ListMaxLimit)
	assert.True(t, cfg.Identity.EnforceSAIDChecksum)
	assert.Equal(t, "kycgate.audit", cfg.Kafka.AuditTopic)
}

func TestFromViper_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SCREENING_DENYLIST", " Mallory, EVE ,mallory")
	t.Setenv("RISK_HIGH_RISK_COUNTRIES", "ng,za")
	t.Setenv("KAFKA_BROKERS", "localhost:9092, localhost:9093")
	t.Setenv("VERIFICATION_LIST_MAX_LIMIT", "25")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"mallory", "eve"}, cfg.Screening.Denylist)
	assert.Equal(t, []string{"NG", "ZA"}, cfg.Risk.HighRiskCountries)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.Kafka.Brokers)
	assert.Equal(t, 25, cfg.KYC.ListMaxLimit)
}

func TestFromViper_Validation(t *testing.T) {
	t.Run("rejects non-positive list limit", func(t *testing.T) {
		t.Setenv("VERIFICATION_LIST_MAX_LIMIT", "0")
		_, err := FromViper(viper.New())
		assert.Error(t, err)
	})

	t.Run("rejects short fingerprint keys", func(t *testing.T) {
		t.Setenv("IDENTITY_FINGERPRINT_KEY", "short")
		_, err := FromViper(viper.New())
		assert.Error(t, err)
	})
}
