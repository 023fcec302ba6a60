package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/mashinman/internal/jalali"
	"github.com/ukydev/mashinman/internal/maintenance"
)

var errConflict = errors.New("already exists")

var (
	brands      = []string{"پژو", "سمند", "دنا", "پراید", "کوئیک"}
	models      = []string{"206", "207", "SE", "Plus", "SL", "SX", "Active", "Tonic"}
	plateLetter = []string{"ب", "ج", "د", "س", "ص", "ط", "ق", "ل", "م", "ن", "و", "ه", "ی"}
	colors      = []string{"سفید", "مشکی", "نقره‌ای", "خاکستری"}
)

var serviceNames = map[string]string{
	"oil_change":              "تعویض روغن",
	"tire_rotation":           "چرخش تایر",
	"brake_inspection":        "بررسی ترمز",
	"engine_tuning":           "تنظیم موتور",
	"air_filter_replacement":  "تعویض فیلتر هوا",
	"oil_filter_replacement":  "تعویض فیلتر روغن",
	"coolant_change":          "تعویض مایع خنک کننده",
	"transmission_service":    "سرویس گیربکس",
	"battery_check":           "بررسی باتری",
	"suspension_inspection":   "بررسی سیستم تعلیق",
	"exhaust_system_check":    "بررسی اگزوز",
	"electrical_system_check": "بررسی سیستم برق",
	"ac_service":              "سرویس کولر",
	"timing_belt":             "تعویض تسمه تایم",
	"brake_fluid":             "تعویض روغن ترمز",
	"spark_plug":              "تعویض شمع",
}

type vehiclePayload struct {
	LicensePlate       string `json:"license_plate"`
	Brand              string `json:"brand"`
	Model              string `json:"model"`
	ManufactureYear    int    `json:"manufacture_year"`
	Color              string `json:"color"`
	CurrentMileage     int    `json:"current_mileage"`
	LastServiceDate    string `json:"last_service_date"`
	LastServiceMileage int    `json:"last_service_mileage"`
}

type servicePayload struct {
	VehicleID          string `json:"vehicle_id"`
	Type               string `json:"type"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	IntervalDays       int    `json:"interval_days"`
	IntervalMileage    int    `json:"interval_mileage"`
	LastServiceDate    string `json:"last_service_date"`
	LastServiceMileage int    `json:"last_service_mileage"`
	Cost               int64  `json:"cost"`
}

type completePayload struct {
	Mileage int   `json:"mileage"`
	Cost    int64 `json:"cost"`
}

type createdVehicle struct {
	ID             string
	Brand          string
	Model          string
	CurrentMileage int
}

// apiClient talks to the maintenance API with a bearer token once logged in.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *apiClient) post(path string, body, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp.StatusCode, nil
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *apiClient) authenticate(path string, body any) (int, error) {
	var result struct {
		Token string `json:"token"`
	}
	status, err := c.post(path, body, &result)
	if err != nil || status >= 300 {
		return status, err
	}
	if result.Token == "" {
		return status, fmt.Errorf("no token in %s response", path)
	}
	c.token = result.Token
	return status, nil
}

// register creates the demo user, returning errConflict when the phone is taken.
func (c *apiClient) register(name, phone, password string) error {
	status, err := c.authenticate("/auth/register", map[string]string{
		"name":     name,
		"phone":    phone,
		"password": password,
		"city":     "تهران",
	})
	if err != nil {
		return err
	}
	switch status {
	case http.StatusCreated:
		return nil
	case http.StatusConflict:
		return errConflict
	}
	return fmt.Errorf("registration failed with status: %d", status)
}

func (c *apiClient) login(phone, password string) error {
	status, err := c.authenticate("/auth/login", map[string]string{"phone": phone, "password": password})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("login failed with status: %d", status)
	}
	return nil
}

func (c *apiClient) createVehicle(v vehiclePayload) (createdVehicle, error) {
	var result struct {
		ID string `json:"id"`
	}
	status, err := c.post("/vehicles", v, &result)
	if err != nil {
		return createdVehicle{}, fmt.Errorf("failed to create vehicle: %w", err)
	}
	if status != http.StatusCreated {
		return createdVehicle{}, fmt.Errorf("vehicle creation failed with status: %d", status)
	}
	if result.ID == "" {
		return createdVehicle{}, fmt.Errorf("invalid vehicle ID in response")
	}
	return createdVehicle{ID: result.ID, Brand: v.Brand, Model: v.Model, CurrentMileage: v.CurrentMileage}, nil
}

func (c *apiClient) createService(s servicePayload) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	status, err := c.post("/services", s, &result)
	if err != nil {
		return "", fmt.Errorf("failed to create service: %w", err)
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("service creation failed with status: %d", status)
	}
	return result.ID, nil
}

func (c *apiClient) completeService(id string, p completePayload) error {
	status, err := c.post("/services/"+id+"/complete", p, nil)
	if err != nil {
		return fmt.Errorf("failed to complete service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service completion failed with status: %d", status)
	}
	return nil
}

func randomPlate(rng *rand.Rand) string {
	return fmt.Sprintf("%d%s%d", 10+rng.Intn(90), plateLetter[rng.Intn(len(plateLetter))], 100+rng.Intn(900))
}

func randomVehicle(rng *rand.Rand, now time.Time) vehiclePayload {
	mileage := 10000 + rng.Intn(190000)
	daysAgo := rng.Intn(365)
	return vehiclePayload{
		LicensePlate:       randomPlate(rng),
		Brand:              brands[rng.Intn(len(brands))],
		Model:              models[rng.Intn(len(models))],
		ManufactureYear:    1380 + rng.Intn(24),
		Color:              colors[rng.Intn(len(colors))],
		CurrentMileage:     mileage,
		LastServiceDate:    jalali.FromTime(now.AddDate(0, 0, -daysAgo)),
		LastServiceMileage: mileage - (5000 + rng.Intn(10000)),
	}
}

func randomService(rng *rand.Rand, policy maintenance.Policy, v createdVehicle, now time.Time) servicePayload {
	serviceType := policy.ServiceTypes[rng.Intn(len(policy.ServiceTypes))]
	name := serviceNames[serviceType]
	if name == "" {
		name = serviceType
	}
	interval := policy.IntervalFor(serviceType)
	last := v.CurrentMileage - rng.Intn(interval)
	if last < 0 {
		last = 0
	}
	return servicePayload{
		VehicleID:          v.ID,
		Type:               serviceType,
		Name:               name,
		Description:        fmt.Sprintf("سرویس %s برای خودرو %s %s", name, v.Brand, v.Model),
		IntervalDays:       []int{90, 180, 365}[rng.Intn(3)],
		IntervalMileage:    interval,
		LastServiceDate:    jalali.FromTime(now.AddDate(0, 0, -rng.Intn(365))),
		LastServiceMileage: last,
		Cost:               int64(50000 + rng.Intn(950000)),
	}
}

type seedResult struct {
	Vehicles  int
	Services  int
	Completed int
}

// seed creates vehicles with a handful of services each and completes about a third of them.
func seed(c *apiClient, rng *rand.Rand, vehicles, servicesPerVehicle int, now time.Time) seedResult {
	policy := maintenance.DefaultPolicy()
	var res seedResult

	for i := 0; i < vehicles; i++ {
		v, err := c.createVehicle(randomVehicle(rng, now))
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		res.Vehicles++
		log.WithFields(log.Fields{
			"vehicle_id": v.ID,
			"brand":      v.Brand,
			"model":      v.Model,
		}).Info("Created vehicle")

		for j := 0; j < servicesPerVehicle; j++ {
			s := randomService(rng, policy, v, now)
			id, err := c.createService(s)
			if err != nil {
				log.WithError(err).WithField("vehicle_id", v.ID).Error("Failed to create service")
				continue
			}
			res.Services++
			if rng.Intn(3) != 0 {
				continue
			}
			if err := c.completeService(id, completePayload{Mileage: v.CurrentMileage, Cost: s.Cost}); err != nil {
				log.WithError(err).WithField("service_id", id).Warn("Failed to complete service")
				continue
			}
			res.Completed++
		}
	}
	return res
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func main() {
	apiURL := getEnv("API_BASE_URL", "http://localhost:9000/api")
	phone := getEnv("SEED_PHONE", "09121111111")
	password := getEnv("SEED_PASSWORD", "password123")
	vehicles := getEnvInt("SEED_VEHICLES", 5)
	servicesPerVehicle := getEnvInt("SEED_SERVICES_PER_VEHICLE", 3)

	log.WithFields(log.Fields{
		"api_url":  apiURL,
		"phone":    phone,
		"vehicles": vehicles,
	}).Info("Starting seeder")

	c := newAPIClient(apiURL)
	err := c.register("علی محمدی", phone, password)
	if errors.Is(err, errConflict) {
		log.Info("Demo user exists, logging in")
		err = c.login(phone, password)
	}
	if err != nil {
		log.WithError(err).Fatal("Failed to authenticate demo user")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	res := seed(c, rng, vehicles, servicesPerVehicle, time.Now())
	log.WithFields(log.Fields{
		"vehicles":  res.Vehicles,
		"services":  res.Services,
		"completed": res.Completed,
	}).Info("Seeding completed")
}
