package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/bt-monitor/internal/device"
)

// MeasurementDevice is the measurement holding Bluetooth device state.
const MeasurementDevice = "bluetooth_device"

// batteryLevelKey is the backend's extra field carrying battery percentage.
const batteryLevelKey = "battery_level"

// deviceState is the part of a record that becomes a point.
type deviceState struct {
	address    string
	name       string
	connected  bool
	battery    float64
	hasBattery bool
}

func stateOf(rec device.Record) deviceState {
	level, ok := rec.ExtraNumber(batteryLevelKey)
	return deviceState{
		address:    rec.BluetoothAddress,
		name:       rec.FriendlyName,
		connected:  rec.IsConnected,
		battery:    level,
		hasBattery: ok,
	}
}

// WriteDeviceState records one device if its state changed since the last
// point written for it.
//
// Tags: instance_id, bluetooth_address, friendly_name (empty values omitted)
// Fields: is_connected, battery_level (when reported)
func (c *Client) WriteDeviceState(rec device.Record) {
	c.WriteDeviceStates([]device.Record{rec})
}

// WriteDeviceStates records every changed device of a snapshot under one
// timestamp.
func (c *Client) WriteDeviceStates(records []device.Record) {
	now := time.Now()

	c.writeMu.RLock()
	defer c.writeMu.RUnlock()

	points := c.changedPoints(records, now)
	for _, p := range points {
		c.writeAPI.WritePoint(p)
	}
}

// changedPoints builds points for records whose state differs from the last
// one written and remembers the new state. The write API is not called under
// the lock because it may block while its error channel is drained.
func (c *Client) changedPoints(records []device.Record, at time.Time) []*write.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil
	}

	var points []*write.Point
	for _, rec := range records {
		state := stateOf(rec)
		if prev, seen := c.last[rec.InstanceID]; seen && prev == state {
			continue
		}
		c.last[rec.InstanceID] = state
		points = append(points, devicePoint(rec.InstanceID, state, at))
	}
	return points
}

func devicePoint(instanceID string, s deviceState, at time.Time) *write.Point {
	tags := map[string]string{"instance_id": instanceID}
	if s.address != "" {
		tags["bluetooth_address"] = s.address
	}
	if s.name != "" {
		tags["friendly_name"] = s.name
	}

	fields := map[string]interface{}{"is_connected": s.connected}
	if s.hasBattery {
		fields[batteryLevelKey] = s.battery
	}
	return write.NewPoint(MeasurementDevice, tags, fields, at)
}
