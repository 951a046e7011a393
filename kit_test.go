package pcidio

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eclipse/paho.golang/paho"

	"github.com/hubertat/pcidio/bitcodec"
	"github.com/hubertat/pcidio/boards"
	"github.com/hubertat/pcidio/drivers"
)

type fakePublisher struct {
	published map[string]string
}

func (fp *fakePublisher) Publish(topic string, payload []byte) error {
	if fp.published == nil {
		fp.published = make(map[string]string)
	}
	fp.published[topic] = string(payload)
	return nil
}

const testConfig = `{
	"Name": "dio",
	"Mock": {},
	"Outlets": [
		{"Name": "pump", "OutCh": 5, "ControlBy": [3], "DisableHomekit": true},
		{"Name": "lamp", "OutCh": 2}
	],
	"Switches": [
		{"Name": "float", "InCh": 3, "DisableHomekit": true}
	]
}`

func newTestKit(t testing.TB) *Kit {
	t.Helper()

	k := &Kit{}
	err := json.Unmarshal([]byte(testConfig), k)
	if err != nil {
		t.Fatalf("failed to unmarshal config: %v", err)
	}
	err = k.InitDriver(context.Background())
	if err != nil {
		t.Fatalf("InitDriver returned err: %v", err)
	}
	err = k.InitIos()
	if err != nil {
		t.Fatalf("InitIos returned err: %v", err)
	}
	err = k.MatchControllers()
	if err != nil {
		t.Fatalf("MatchControllers returned err: %v", err)
	}
	return k
}

func TestKitInitDriver(t *testing.T) {
	k := newTestKit(t)
	defer k.Close()

	if k.Driver().Profile().Name != "pci2724" {
		t.Errorf("default board got %s", k.Driver().Profile().Name)
	}
	if !k.Driver().ShadowKnown() {
		t.Error("board should be initialized")
	}
	if len(k.Mock.Writes()) != 4 {
		t.Errorf("Initialize should write 4 times, got %d", len(k.Mock.Writes()))
	}

	acc := k.GetHkAccessories("test")
	if len(acc) != 1 {
		t.Errorf("only lamp has HomeKit enabled, got %d accessories", len(acc))
	}
}

func TestKitTransportChoice(t *testing.T) {
	k := &Kit{}
	err := k.InitDriver(context.Background())
	if err == nil {
		t.Error("no transport should fail")
	}

	k = &Kit{Mock: &drivers.MockTransport{}, Remote: &drivers.RemoteTransport{}}
	err = k.InitDriver(context.Background())
	if err == nil {
		t.Error("two transports should fail")
	}

	k = &Kit{Mock: &drivers.MockTransport{}, Board: "nope"}
	err = k.InitDriver(context.Background())
	if err == nil {
		t.Error("unknown board should fail")
	}

	k = &Kit{Mock: &drivers.MockTransport{}, SkipInitialize: true}
	err = k.InitDriver(context.Background())
	if err != nil {
		t.Fatalf("InitDriver returned err: %v", err)
	}
	if len(k.Mock.Writes()) != 0 {
		t.Error("SkipInitialize should not write")
	}
}

func TestKitMatchControllers(t *testing.T) {
	k := &Kit{
		Mock:    &drivers.MockTransport{},
		Outlets: []*Outlet{{Name: "orphan", OutCh: 1, ControlBy: []int{7}, DisableHomekit: true}},
	}
	if err := k.InitDriver(context.Background()); err != nil {
		t.Fatalf("InitDriver returned err: %v", err)
	}
	if err := k.MatchControllers(); err == nil {
		t.Error("missing switch should fail")
	}
}

func TestKitSync(t *testing.T) {
	k := newTestKit(t)
	defer k.Close()
	pub := &fakePublisher{}
	k.publisher = pub

	err := k.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned err: %v", err)
	}
	if len(pub.published) != 32 {
		t.Errorf("first sync should publish every input, got %d", len(pub.published))
	}

	pub.published = nil
	k.Mock.SetInput(0, 0, []byte{0x04, 0x00, 0x00, 0x00})
	err = k.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned err: %v", err)
	}

	if len(pub.published) != 1 || pub.published["dio/in/3"] != "1" {
		t.Errorf("unexpected publish: %v", pub.published)
	}
	if !k.Switches[0].State {
		t.Error("switch should be on")
	}
	if !k.Outlets[0].State {
		t.Error("pump follows the switch")
	}
	assertBytes(t, k.Mock.Output(0, 0, 1), []byte{0x10})
}

func TestKitMqttHandlers(t *testing.T) {
	k := newTestKit(t)
	defer k.Close()
	handlers := k.mqttHandlers()

	handlers[0].MqttHandle(&paho.Publish{Topic: "dio/out/2/set", Payload: []byte("on")})
	assertBytes(t, k.Mock.Output(0, 0, 1), []byte{0x02})
	if !k.Outlets[1].State {
		t.Error("lamp state should follow mqtt")
	}

	handlers[0].MqttHandle(&paho.Publish{Topic: "dio/out/2/set", Payload: []byte("maybe")})
	assertBytes(t, k.Mock.Output(0, 0, 1), []byte{0x02})

	handlers[0].MqttHandle(&paho.Publish{Topic: "dio/out/2/set", Payload: []byte("OFF")})
	assertBytes(t, k.Mock.Output(0, 0, 1), []byte{0x00})

	handlers[1].MqttHandle(&paho.Publish{Topic: "dio/flags/0x0b/set", Payload: []byte("PORT0 PORT2")})
	assertBytes(t, k.Mock.Output(0, 0x0b, 1), []byte{0x05})

	if handlers[1].MqttSubscribeTopic() != "dio/flags/+/set" {
		t.Errorf("got topic %s", handlers[1].MqttSubscribeTopic())
	}
}

func TestKitPrintIoStatus(t *testing.T) {
	k := newTestKit(t)
	defer k.Close()

	buf := &bytes.Buffer{}
	k.PrintIoStatus(buf)

	for _, want := range []string{"pci2724@mock", "board id: 0", "pump@5", "float@3"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("%q missing in:\n%s", want, buf.String())
		}
	}
}

func TestKitSlaveKeepsShadow(t *testing.T) {
	k := &Kit{
		Mock:  &drivers.MockTransport{},
		Slave: &SlaveConfig{HttpAddr: "127.0.0.1:0", Token: "secret"},
	}
	err := k.InitDriver(context.Background())
	if err != nil {
		t.Fatalf("InitDriver returned err: %v", err)
	}
	defer k.Close()

	server := httptest.NewServer(k.slave.Handler())
	defer server.Close()

	rt := &drivers.RemoteTransport{Host: server.URL, Token: "secret"}
	err = rt.Setup(context.Background())
	if err != nil {
		t.Fatalf("remote Setup returned err: %v", err)
	}
	remote := NewDriver(boards.PCI2724, rt)

	err = remote.WriteChannels(bitcodec.Bits{1}, 9)
	if err != nil {
		t.Fatalf("remote WriteChannels returned err: %v", err)
	}
	assertBytes(t, k.Mock.Output(0, 0, 4), []byte{0x00, 0x01, 0x00, 0x00})
	assertBytes(t, k.Driver().Shadow(), []byte{0x00, 0x01, 0x00, 0x00})

	err = k.Driver().WriteChannels(bitcodec.Bits{1}, 1)
	if err != nil {
		t.Fatalf("WriteChannels returned err: %v", err)
	}
	assertBytes(t, k.Mock.Output(0, 0, 4), []byte{0x01, 0x01, 0x00, 0x00})

	got, err := rt.Read(0, 0x0f, 1)
	if err != nil {
		t.Fatalf("remote Read returned err: %v", err)
	}
	assertBytes(t, got, []byte{0x00})
}

func TestOutletToggle(t *testing.T) {
	k := newTestKit(t)
	defer k.Close()
	lamp := k.Outlets[1]

	lamp.Toggle()
	assertBools(t, lamp.State, true)
	assertBytes(t, k.Mock.Output(0, 0, 1), []byte{0x02})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			lamp.Sync()
		}
		close(done)
	}()
	for i := 0; i < 51; i++ {
		lamp.Toggle()
	}
	<-done

	assertBools(t, lamp.State, false)
	assertBytes(t, k.Mock.Output(0, 0, 1), []byte{0x00})
}
