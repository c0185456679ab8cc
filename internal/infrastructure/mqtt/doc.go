// Package mqtt provides MQTT client connectivity for Sensorgrid.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Sensorgrid uses MQTT as an optional ingest path: field devices publish
// telemetry readings to sensorgrid/telemetry/{deviceId} instead of (or in
// addition to) the HTTP endpoint. The ingest bridge subscribes here and
// feeds readings through the same validation as the HTTP path.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllDeviceTelemetry(), 1,
//	    func(topic string, payload []byte) error {
//	        // handle reading
//	        return nil
//	    })
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Subscriptions are automatically restored on reconnection.
package mqtt
