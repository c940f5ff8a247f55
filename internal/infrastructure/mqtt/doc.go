// Package mqtt provides MQTT client connectivity for the Bluetooth monitor.
//
// The hardware-monitoring backend owns the radio and the battery polling loop.
// The monitor reaches it through an MQTT broker:
//
//	Monitor ↔ MQTT Broker ↔ Hardware-monitoring backend
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions, restored after reconnect
//   - Last Will and Testament (LWT) for offline detection
//
// # Topic hierarchy
//
//	{prefix}/request/{command}                   commands to the backend
//	{prefix}/response/{client_id}/{request_id}   replies to one client
//	{prefix}/event/{channel}                     backend push events
//	{prefix}/client/{client_id}/status           retained online/offline status
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().Event("device-updates"), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
