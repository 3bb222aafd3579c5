package libnet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/shardus/lib-net/config"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

func TestModule_ProvidesMessenger(t *testing.T) {
	var m *Messenger
	app := fxtest.New(t,
		FxLogger(nil),
		Module(testConfig()),
		fx.Populate(&m),
	)
	app.RequireStart()
	require.NotNil(t, m)

	app.RequireStop()
	assert.True(t, m.isClosed())
}

func TestModule_ListensWithHandler(t *testing.T) {
	var server *Messenger
	app := fxtest.New(t,
		FxLogger(nil),
		Module(testConfig()),
		fx.Provide(func() Handler { return echo(t) }),
		fx.Populate(&server),
	)
	defer app.RequireStart().RequireStop()

	require.NotZero(t, server.Port())

	client := listening(t, testConfig(), nil)
	reply, err := client.Request(context.Background(), server.Port(), loopback, []byte("fx"), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "re:fx", string(reply.Data))
}

func TestModule_ConfigFromGraph(t *testing.T) {
	var m *Messenger
	cfg := testConfig(withHeader)
	app := fxtest.New(t,
		FxLogger(nil),
		fx.Supply(cfg),
		Module(nil),
		fx.Populate(&m),
	)
	defer app.RequireStart().RequireStop()

	assert.Equal(t, uint8(config.HeaderV1), m.Config().Header.Version)
}

func TestModule_InvalidConfig(t *testing.T) {
	app := fx.New(
		FxLogger(nil),
		Module(config.NewConfig()),
		fx.Invoke(func(*Messenger) {}),
	)
	require.Error(t, app.Err())
	assert.Contains(t, app.Err().Error(), "invalid configuration")
}
