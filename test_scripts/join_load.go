package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// User represents a record of the generated users collection
type User struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	CityID int    `json:"city_id"`
}

// City represents a record of the generated cities collection
type City struct {
	CityID int    `json:"city_id"`
	City   string `json:"city"`
}

// generateRandomName generates a random 6-letter name
func generateRandomName() string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	name := make([]byte, 6)
	for i := range name {
		name[i] = letters[rand.Intn(len(letters))]
	}
	// Capitalize first letter
	name[0] = name[0] - 32
	return string(name)
}

// send issues a request with a JSON body and checks the status code
func send(method, url string, body interface{}, want int) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return fmt.Errorf("%s %s: unexpected status code: %d", method, url, resp.StatusCode)
	}
	return nil
}

func main() {
	// Check command line arguments
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run test_scripts/join_load.go <number_of_users> [server_url]")
		fmt.Println("Example: go run test_scripts/join_load.go 10000 http://localhost:8080")
		os.Exit(1)
	}

	numUsers, err := strconv.Atoi(os.Args[1])
	if err != nil || numUsers <= 0 {
		fmt.Printf("Error: Invalid number of users '%s'. Please provide a positive integer.\n", os.Args[1])
		os.Exit(1)
	}

	// Set server URL (default to localhost:8080)
	serverURL := "http://localhost:8080"
	if len(os.Args) >= 3 {
		serverURL = os.Args[2]
	}

	numCities := max(1, numUsers/100)
	cities := make([]City, numCities)
	for i := range cities {
		cities[i] = City{CityID: i, City: generateRandomName()}
	}
	users := make([]User, numUsers)
	for i := range users {
		users[i] = User{Name: generateRandomName(), Age: rand.Intn(82) + 18, CityID: rand.Intn(numCities)}
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"upload cities", func() error { return send("PUT", serverURL+"/collections/cities", cities, http.StatusCreated) }},
		{"upload users", func() error { return send("PUT", serverURL+"/collections/users", users, http.StatusCreated) }},
		{"index cities", func() error {
			return send("POST", serverURL+"/collections/cities/indexes/city_id", nil, http.StatusCreated)
		}},
		{"enqueue join", func() error {
			step := map[string]interface{}{"mergeByIndex": map[string]interface{}{"keys": []string{"city_id"}, "from": "cities"}}
			return send("POST", serverURL+"/collections/users/operations", step, http.StatusAccepted)
		}},
		{"process users", func() error { return send("GET", serverURL+"/collections/users/records", nil, http.StatusOK) }},
		{"index users", func() error {
			return send("POST", serverURL+"/collections/users/indexes/name,city_id", nil, http.StatusCreated)
		}},
	}

	fmt.Printf("Starting join load test: %d users, %d cities against %s\n", numUsers, numCities, serverURL)
	for _, step := range steps {
		start := time.Now()
		if err := step.run(); err != nil {
			fmt.Printf("Error during %s: %v\n", step.name, err)
			os.Exit(1)
		}
		fmt.Printf("%-16s %v\n", step.name+":", time.Since(start))
	}

	// Point lookups through the composite index
	lookups := min(numUsers, 1000)
	start := time.Now()
	errorCount := 0
	for i := 0; i < lookups; i++ {
		u := users[rand.Intn(numUsers)]
		url := fmt.Sprintf("%s/collections/users/find?name=%s&city_id=%d", serverURL, u.Name, u.CityID)
		if err := send("GET", url, nil, http.StatusOK); err != nil {
			errorCount++
		}
	}
	totalTime := time.Since(start)

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("JOIN LOAD TEST COMPLETE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Lookups attempted:     %d\n", lookups)
	fmt.Printf("Failed lookups:        %d\n", errorCount)
	fmt.Printf("Total lookup time:     %v\n", totalTime)
	fmt.Printf("Average per lookup:    %v\n", totalTime/time.Duration(lookups))

	if errorCount > 0 {
		fmt.Printf("\nWarning: %d lookups failed\n", errorCount)
		os.Exit(1)
	}
}
