package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func dataField(body []byte, key string) string {
	var parsed map[string]interface{}
	json.Unmarshal(body, &parsed)
	if data, ok := parsed["data"].(map[string]interface{}); ok {
		if v, ok := data[key].(string); ok {
			return v
		}
	}
	return ""
}

func main() {
	color.Cyan("Starting Roleplay API Smoke Test\n")

	// 1. Register a throwaway user
	color.Yellow("\n1. Register")
	email := fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())
	resp, body, err := sendRequest("POST", "/auth/v1/register", "", map[string]interface{}{
		"email":    email,
		"password": "smoke-password",
		"username": "Smoke Tester",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	var regResp map[string]interface{}
	json.Unmarshal(body, &regResp)
	var token string
	if data, ok := regResp["data"].(map[string]interface{}); ok {
		token, _ = data["token"].(string)
	}
	if token == "" {
		color.Red("No token returned, aborting")
		prettyPrint(regResp)
		os.Exit(1)
	}

	// 2. Create a character
	color.Yellow("\n2. Create Character")
	resp, body, err = sendRequest("POST", "/character/v1", token, map[string]interface{}{
		"name":          "Smoke Narrator",
		"description":   "A narrator used by the smoke test.",
		"personality":   "Dry, terse.",
		"first_message": "The test begins.",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	characterID := dataField(body, "id")
	fmt.Printf("Character ID: %s\n", characterID)

	// 3. Attach lore
	color.Yellow("\n3. Create Lore Entry")
	resp, body, err = sendRequest("POST", "/lore/v1", token, map[string]interface{}{
		"character_id": characterID,
		"title":        "The Test Chamber",
		"keywords":     []string{"chamber"},
		"content":      "The test chamber has no windows.",
	})
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
	}

	// 4. Configure a backend and activate it
	color.Yellow("\n4. Create + Activate Backend")
	resp, body, err = sendRequest("POST", "/backend/v1", token, map[string]interface{}{
		"name":  "Local Ollama",
		"kind":  "ollama",
		"model": "llama3",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	backendID := dataField(body, "id")

	resp, _, err = sendRequest("POST", "/backend/v1/"+backendID+"/activate", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
	}

	// 5. Open a chat session
	color.Yellow("\n5. Create Chat Session")
	resp, body, err = sendRequest("POST", "/chat/v1", token, map[string]interface{}{
		"character_id": characterID,
		"persona_name": "Operator",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	sessionID := dataField(body, "id")
	fmt.Printf("Session ID: %s\n", sessionID)

	// 6. Kick off a generation and poll for the result. The real client
	// watches the websocket; polling is good enough for a smoke check.
	color.Yellow("\n6. Generate")
	resp, body, err = sendRequest("POST", "/chat/v1/"+sessionID+"/generate", token, map[string]interface{}{
		"prompt": "Describe the chamber in one sentence.",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	messageID := dataField(body, "message_id")
	fmt.Printf("Streaming message ID: %s\n", messageID)

	color.Yellow("\n7. Poll Messages")
	for i := 0; i < 30; i++ {
		time.Sleep(2 * time.Second)
		_, body, err = sendRequest("GET", "/chat/v1/"+sessionID+"/messages", token, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			break
		}
		var parsed map[string]interface{}
		json.Unmarshal(body, &parsed)
		msgs, _ := parsed["data"].([]interface{})
		if len(msgs) == 0 {
			continue
		}
		last, _ := msgs[len(msgs)-1].(map[string]interface{})
		status, _ := last["status"].(string)
		fmt.Printf("  status=%s len=%d\n", status, len(fmt.Sprint(last["content"])))
		if status != "streaming" {
			color.Green("Final status: %s", status)
			fmt.Printf("Reply: %s\n", last["content"])
			break
		}
	}

	// 8. Inspect the last context window
	color.Yellow("\n8. Snapshot")
	resp, body, err = sendRequest("GET", "/chat/v1/"+sessionID+"/snapshot", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		var snap map[string]interface{}
		json.Unmarshal(body, &snap)
		prettyPrint(snap)
	}

	color.Cyan("\nSmoke Test Complete")
}
