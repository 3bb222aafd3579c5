package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/shardus/lib-net/pkg/interfaces"
	"github.com/shardus/lib-net/pkg/types"
)

func sampleEnvelope() *types.Envelope {
	return &types.Envelope{
		Data:              []byte{0x01, 0x02, 0xff},
		ID:                "0192f0c4-8b2e-7cc1-9a55-3b1e0f6a1d2c",
		OriginPort:        9001,
		OriginAddress:     "10.0.0.7",
		SendTime:          1729000000000,
		ReceivedTime:      1729000000005,
		ReplyTime:         1729000000010,
		ReplyReceivedTime: 1729000000020,
		TimeoutMs:         3000,
		Direction:         types.DirResp,
	}
}

func TestSerializers_PreserveEnvelope(t *testing.T) {
	for _, s := range []interfaces.Serializer{JSON{}, ProtoWire{}} {
		t.Run(s.Name(), func(t *testing.T) {
			env := sampleEnvelope()
			if s.Name() == JSONName {
				env.Data = []byte(`{"route":"gossip","payload":[1,2]}`)
			}

			raw, err := s.Marshal(env)
			require.NoError(t, err)
			require.NotEmpty(t, raw)
			assert.NotEqual(t, byte(0x01), raw[0], "must not collide with the header sentinel")

			got, err := s.Unmarshal(raw)
			require.NoError(t, err)
			assert.Equal(t, env, got)
		})
	}
}

func TestSerializers_RejectGarbage(t *testing.T) {
	_, err := JSON{}.Unmarshal([]byte("{nope"))
	assert.ErrorIs(t, err, ErrDecode)

	// 声明 10 字节但只有 1 字节
	bad := protowire.AppendTag(nil, fieldID, protowire.BytesType)
	bad = append(bad, 10, 'x')
	_, err = ProtoWire{}.Unmarshal(bad)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestProtoWire_SkipsUnknownFields(t *testing.T) {
	raw, err := ProtoWire{}.Marshal(&types.Envelope{ID: "a", Direction: types.DirTell})
	require.NoError(t, err)

	raw = protowire.AppendTag(raw, 99, protowire.VarintType)
	raw = protowire.AppendVarint(raw, 7)
	raw = protowire.AppendTag(raw, 100, protowire.BytesType)
	raw = protowire.AppendString(raw, "future")

	env, err := ProtoWire{}.Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, "a", env.ID)
	assert.Equal(t, types.DirTell, env.Direction)
}

// 现有节点 NewAugData 产生的信封：data 为任意 JSON 值，没有 timeout 字段
func TestJSON_PeerEnvelopeStringData(t *testing.T) {
	raw := []byte(`{"data":"ping","UUID":"u1","PORT":9002,"ADDRESS":"0.0.0.0",` +
		`"sendTime":1729000000000,"receivedTime":0,"replyTime":0,"replyReceivedTime":0,"msgDir":"ask"}`)

	env, err := JSON{}.Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(env.Data))
	assert.Equal(t, "u1", env.ID)
	assert.Equal(t, 9002, env.OriginPort)
	assert.Equal(t, "0.0.0.0", env.OriginAddress)
	assert.Equal(t, int64(1729000000000), env.SendTime)
	assert.Equal(t, int64(0), env.TimeoutMs)
	assert.Equal(t, types.DirAsk, env.Direction)
}

func TestJSON_PeerEnvelopeObjectData(t *testing.T) {
	raw := []byte(`{"data":{"route":"bombardment-test","payload":"Hello, world!"},"UUID":"u2","PORT":9002,` +
		`"ADDRESS":"10.0.0.2","sendTime":5,"receivedTime":0,"replyTime":0,"replyReceivedTime":0,"msgDir":"tell"}`)

	env, err := JSON{}.Unmarshal(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"route":"bombardment-test","payload":"Hello, world!"}`, string(env.Data))
	assert.Equal(t, types.DirTell, env.Direction)

	// 发回时仍是对象而不是字符串
	out, err := JSON{}.Marshal(env)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, map[string]any{"route": "bombardment-test", "payload": "Hello, world!"}, m["data"])
}

func TestJSON_WireFieldNames(t *testing.T) {
	out, err := JSON{}.Marshal(&types.Envelope{
		Data: []byte("hi"), ID: "abc", OriginPort: 9001, OriginAddress: "127.0.0.1",
		SendTime: 10, TimeoutMs: 500, Direction: types.DirAsk,
	})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	for _, key := range []string{"data", "UUID", "PORT", "ADDRESS", "sendTime", "receivedTime",
		"replyTime", "replyReceivedTime", "timeout", "msgDir"} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, "hi", m["data"])
	assert.Equal(t, "ask", m["msgDir"])
}

func TestJSON_DataRoundTrip(t *testing.T) {
	for _, data := range []string{"ping", `"quoted"`, "null", "42", `[1,"a"]`, "{not json", "true", "中文", `{"html":"<b>&</b>"}`} {
		out, err := JSON{}.Marshal(&types.Envelope{ID: "x", Data: []byte(data)})
		require.NoError(t, err)
		env, err := JSON{}.Unmarshal(out)
		require.NoError(t, err)
		assert.Equal(t, data, string(env.Data))
	}

	out, err := JSON{}.Marshal(&types.Envelope{ID: "x"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"data"`)

	env, err := JSON{}.Unmarshal([]byte(`{"data":null,"UUID":"x"}`))
	require.NoError(t, err)
	assert.Empty(t, env.Data)

	_, err = JSON{}.Marshal(&types.Envelope{ID: "x", Data: []byte{0xff, 0xfe}})
	assert.ErrorIs(t, err, ErrEncode)
}

func TestByName(t *testing.T) {
	s, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, JSONName, s.Name())

	s, err = ByName(ProtoWireName)
	require.NoError(t, err)
	assert.Equal(t, ProtoWireName, s.Name())

	_, err = ByName("xml")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}
