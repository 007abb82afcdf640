package main

import paho "github.com/eclipse/paho.mqtt.golang"

// newMQTTClient connects to the broker with auto-reconnect so a bounced
// broker does not kill a long-running simulation.
func newMQTTClient(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetCleanSession(true)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}
