package mqtt

import (
	"testing"

	"github.com/eclipse/paho.golang/paho"
)

type recordingHandler struct {
	topic    string
	received []string
}

func (rh *recordingHandler) MqttSubscribeTopic() string {
	return rh.topic
}

func (rh *recordingHandler) MqttHandle(pub *paho.Publish) {
	rh.received = append(rh.received, pub.Topic)
}

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		filter, topic string
		want          bool
	}{
		{"dio/out/+/set", "dio/out/3/set", true},
		{"dio/out/+/set", "dio/out/3/get", false},
		{"dio/out/+/set", "dio/out/set", false},
		{"dio/#", "dio/flags/11/set", true},
		{"dio/in/1", "dio/in/1", true},
		{"dio/in/1", "dio/in/1/x", false},
	}

	for _, tt := range tests {
		if got := TopicMatches(tt.filter, tt.topic); got != tt.want {
			t.Errorf("TopicMatches(%q, %q) got %v want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestDispatch(t *testing.T) {
	outs := &recordingHandler{topic: "dio/out/+/set"}
	flagsHandler := &recordingHandler{topic: "dio/flags/+/set"}

	mc, err := NewMqttClient("mqtt://127.0.0.1:1883", "test")
	if err != nil {
		t.Fatalf("NewMqttClient returned err: %v", err)
	}
	mc.handlers = []MqttHandler{outs, flagsHandler}

	if !mc.dispatch(&paho.Publish{Topic: "dio/out/7/set"}) {
		t.Error("message should be handled")
	}
	if mc.dispatch(&paho.Publish{Topic: "other/out/7/set"}) {
		t.Error("message should not be handled")
	}

	if len(outs.received) != 1 || len(flagsHandler.received) != 0 {
		t.Errorf("got %v and %v", outs.received, flagsHandler.received)
	}

	if err := mc.Publish("dio/in/1", []byte("1")); err == nil {
		t.Error("publish before connect should fail")
	}
}
