package postgres

import (
	"context"
	"net"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/pkg/config"
)

func usesIPv4Dial(f any) bool {
	return reflect.ValueOf(f).Pointer() == reflect.ValueOf(dialIPv4).Pointer()
}

func TestPoolConfigFor_AplicaMaxConnsYDialSoloSiSePide(t *testing.T) {
	cfg := config.DBConfig{Host: "db", Port: 5432, User: "app", DBName: "salon", SSLMode: "disable", MaxConns: 1}

	pc, err := poolConfigFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(1), pc.MaxConns)
	assert.Equal(t, int32(1), pc.MinConns)
	assert.False(t, usesIPv4Dial(pc.ConnConfig.DialFunc))
	assert.NotNil(t, pc.AfterConnect)

	cfg.ForceIPv4 = true
	cfg.MaxConns = 0
	pc, err = poolConfigFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(defaultMaxConns), pc.MaxConns)
	assert.True(t, usesIPv4Dial(pc.ConnConfig.DialFunc))
}

func TestLookupIPv4_Literales(t *testing.T) {
	ip, err := lookupIPv4(context.Background(), net.DefaultResolver, "10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", ip)

	_, err = lookupIPv4(context.Background(), net.DefaultResolver, "::1")
	assert.Error(t, err)
}
