package pcidio

import (
	"strconv"
	"strings"

	"github.com/eclipse/paho.golang/paho"
	"github.com/pkg/errors"

	"github.com/hubertat/pcidio/bitcodec"
	"github.com/hubertat/pcidio/flags"
	"github.com/hubertat/pcidio/mqtt"
)

// outputSetHandler handles <name>/out/<ch>/set.
type outputSetHandler struct {
	kit *Kit
}

// flagsSetHandler handles <name>/flags/<reg>/set, payload is a flag list like "PORT0 PORT1".
type flagsSetHandler struct {
	kit *Kit
}

func (k *Kit) mqttHandlers() []mqtt.MqttHandler {
	return []mqtt.MqttHandler{
		&outputSetHandler{kit: k},
		&flagsSetHandler{kit: k},
	}
}

func parseState(payload []byte) (state bool, err error) {
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "1", "on", "true":
		state = true
	case "0", "off", "false":
		state = false
	default:
		err = errors.Errorf("unknown state %q", payload)
	}
	return
}

// topicParam returns the level just before the trailing "set".
func topicParam(topic string) string {
	levels := strings.Split(topic, "/")
	if len(levels) < 2 {
		return ""
	}
	return levels[len(levels)-2]
}

func (oh *outputSetHandler) MqttSubscribeTopic() string {
	return oh.kit.name() + "/out/+/set"
}

func (oh *outputSetHandler) MqttHandle(pub *paho.Publish) {
	err := oh.handle(pub)
	if err != nil {
		oh.kit.logger.Warn("mqtt output set failed", "topic", pub.Topic, "err", err)
	}
}

func (oh *outputSetHandler) handle(pub *paho.Publish) error {
	ch, err := strconv.Atoi(topicParam(pub.Topic))
	if err != nil {
		return errors.Wrap(err, "bad channel in topic")
	}
	state, err := parseState(pub.Payload)
	if err != nil {
		return err
	}

	bit := uint8(0)
	if state {
		bit = 1
	}
	err = oh.kit.driver.WriteChannels(bitcodec.Bits{bit}, ch)
	if err != nil {
		return err
	}

	for _, ou := range oh.kit.Outlets {
		if ou.OutCh == ch {
			syncErr := ou.Sync()
			if syncErr != nil {
				oh.kit.logger.Warn("outlet sync after mqtt set failed", "outlet", ou.Name, "err", syncErr)
			}
		}
	}
	return nil
}

func (fh *flagsSetHandler) MqttSubscribeTopic() string {
	return fh.kit.name() + "/flags/+/set"
}

func (fh *flagsSetHandler) MqttHandle(pub *paho.Publish) {
	err := fh.handle(pub)
	if err != nil {
		fh.kit.logger.Warn("mqtt flags set failed", "topic", pub.Topic, "err", err)
	}
}

func (fh *flagsSetHandler) handle(pub *paho.Publish) error {
	reg, err := strconv.ParseInt(topicParam(pub.Topic), 0, 0)
	if err != nil {
		return errors.Wrap(err, "bad register in topic")
	}
	return fh.kit.driver.SetFlags(int(reg), flags.Parse(string(pub.Payload)))
}
