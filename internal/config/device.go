package config

import (
	"fmt"
	"os"
)

// CameraIP returns the camera IP from the ESP32_IP env var.
// Falls back to the provided default if not set.
func CameraIP(defaultIP string) string {
	if ip := os.Getenv("ESP32_IP"); ip != "" {
		return ip
	}
	return defaultIP
}

// CaptureURL returns the still-frame endpoint of the camera firmware.
func CaptureURL(ip string) string {
	return fmt.Sprintf("http://%s:80/capture", ip)
}

// ViolationURL returns the endpoint the firmware listens on for violations.
func ViolationURL(ip string) string {
	return fmt.Sprintf("http://%s:80/violation", ip)
}
