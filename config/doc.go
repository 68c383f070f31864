// Package config loads the bhlog configuration file.
//
// The file is TOML with one table per concern:
//
//	[serial]
//	baud_rate = 115200
//	read_timeout_ms = 2000
//
//	[usb]
//	vendor_id = 8947
//	timeout_ms = 2000
//
//	[protocol]
//	frame_timeout_ms = 2000
//	bad_data_retries = 10
//	read_retries = 1
//
//	[log]
//	level = "info"
//	pretty = true
//
//	[export]
//	dir = "~/bioharness"
//	time_zone = "Pacific/Auckland"
//
// Keys left out keep their defaults.
package config
