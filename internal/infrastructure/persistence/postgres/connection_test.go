package postgres

import (
	"testing"

	"github.com/nutrimom/api/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestReplicaDSN(t *testing.T) {
	db := config.DatabaseConfig{
		Port:     5432,
		Database: "nutrimom",
		Username: "app",
		Password: "secret",
		SSLMode:  "disable",
	}

	tests := []struct {
		name    string
		replica string
		want    string
	}{
		{
			name:    "HostOnly_ShouldUsePrimaryPort",
			replica: "replica-1",
			want:    "host=replica-1 port=5432 user=app password=secret dbname=nutrimom sslmode=disable",
		},
		{
			name:    "HostPort_ShouldUseGivenPort",
			replica: "replica-2:6432",
			want:    "host=replica-2 port=6432 user=app password=secret dbname=nutrimom sslmode=disable",
		},
		{
			name:    "FullDSN_ShouldPassThrough",
			replica: "postgres://ro:pw@replica-3:5432/nutrimom",
			want:    "postgres://ro:pw@replica-3:5432/nutrimom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReplicaDSN(db, tt.replica))
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, ParseLogLevel("DEBUG"))
	assert.Equal(t, logger.Warn, ParseLogLevel("warn"))
	assert.Equal(t, logger.Error, ParseLogLevel("error"))
	assert.Equal(t, logger.Silent, ParseLogLevel(""))
}
