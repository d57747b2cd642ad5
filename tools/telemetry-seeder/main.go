// Command telemetry-seeder registers a test user with a fleet of devices
// and streams synthetic wearable telemetry at the ingestion endpoint.
// Useful for exercising correlation locally: with -seizure-burst the
// seeder flips the abnormal flag on several devices at once so that a
// confirmed event fires.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	baseURL      = flag.String("url", "http://localhost:8080", "NeuroWatch base URL")
	username     = flag.String("username", "", "username to register/login as (random if empty)")
	password     = flag.String("password", "seeder-pass", "password for the seeded user")
	deviceCount  = flag.Int("devices", 4, "number of devices to register")
	count        = flag.Int("count", 200, "telemetry readings to send")
	interval     = flag.Duration("interval", 250*time.Millisecond, "interval between readings")
	seizureBurst = flag.Bool("seizure-burst", false, "end the run with an abnormal burst across all devices")
)

func main() {
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	user := *username
	if user == "" {
		user = fmt.Sprintf("seeder-%s", gofakeit.Username())
	}

	client := &http.Client{Timeout: 10 * time.Second}

	token, err := registerAndLogin(client, user, *password)
	if err != nil {
		log.Fatalf("Failed to authenticate: %v", err)
	}
	log.Printf("Authenticated as %s", user)

	devices, err := registerDevices(client, token, *deviceCount)
	if err != nil {
		log.Fatalf("Failed to register devices: %v", err)
	}
	log.Printf("Registered %d devices: %v", len(devices), devices)

	sent := 0
	failed := 0
	for i := 0; i < *count; i++ {
		deviceID := devices[rand.Intn(len(devices))]
		if err := sendReading(client, deviceID, false); err != nil {
			log.Printf("Failed to send reading: %v", err)
			failed++
		} else {
			sent++
			if sent%50 == 0 {
				log.Printf("Progress: %d/%d readings sent", sent, *count)
			}
		}
		if *interval > 0 {
			time.Sleep(*interval)
		}
	}

	if *seizureBurst {
		log.Printf("Sending abnormal burst across %d devices", len(devices))
		for _, deviceID := range devices {
			if err := sendReading(client, deviceID, true); err != nil {
				log.Printf("Failed to send abnormal reading: %v", err)
				failed++
			} else {
				sent++
			}
		}
	}

	log.Printf("Seeding complete: %d sent, %d failed", sent, failed)
}

func registerAndLogin(client *http.Client, username, password string) (string, error) {
	creds := map[string]string{"username": username, "password": password}

	// Registration may 400 if the user already exists; login decides.
	resp, err := postJSON(client, *baseURL+"/api/register", "", creds)
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	resp, err = postJSON(client, *baseURL+"/api/login", "", creds)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	return body.AccessToken, nil
}

func registerDevices(client *http.Client, token string, n int) ([]string, error) {
	devices := make([]string, 0, n)
	for i := 0; i < n; i++ {
		deviceID := fmt.Sprintf("wearable-%s", gofakeit.UUID()[:8])
		req := map[string]string{
			"device_id": deviceID,
			"label":     fmt.Sprintf("%s wristband", gofakeit.Color()),
		}
		resp, err := postJSON(client, *baseURL+"/api/devices/register", token, req)
		if err != nil {
			return nil, err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("device registration returned status %d", resp.StatusCode)
		}
		devices = append(devices, deviceID)
	}
	return devices, nil
}

func sendReading(client *http.Client, deviceID string, abnormal bool) error {
	reading := map[string]interface{}{
		"device_id":    deviceID,
		"timestamp_ms": time.Now().UnixMilli(),
		"seizure_flag": abnormal,
		"sensors": map[string]interface{}{
			"heart_rate":  gofakeit.Number(55, 110),
			"spo2":        gofakeit.Number(93, 100),
			"accel_mag":   gofakeit.Float64Range(0.1, 2.5),
			"temperature": gofakeit.Float64Range(36.0, 37.8),
		},
	}
	if abnormal {
		reading["sensors"].(map[string]interface{})["heart_rate"] = gofakeit.Number(150, 190)
		reading["sensors"].(map[string]interface{})["accel_mag"] = gofakeit.Float64Range(6.0, 12.0)
	}

	resp, err := postJSON(client, *baseURL+"/api/devices/data", "", reading)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ingest returned status %d", resp.StatusCode)
	}
	return nil
}

func postJSON(client *http.Client, url, token string, payload interface{}) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return client.Do(req)
}
