//go:build api
// +build api

// Package api contains tests that run against a real backend server.
// Run with: go test -tags=api ./tests/api/... -v
// Requires backend to be running on localhost:8080
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	defaultBaseURL = "http://localhost:8081"
	defaultAPIKey  = "test-api-key-for-development-only-32chars"
)

// APITestSuite is the test suite for real API endpoint testing
type APITestSuite struct {
	suite.Suite
	baseURL string
	apiKey  string
	client  *http.Client

	// Test data IDs for cleanup
	createdMailboxIDs []uint
	createdAliasIDs   []uint
}

func TestAPIEndpoints(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupSuite() {
	s.baseURL = os.Getenv("API_BASE_URL")
	if s.baseURL == "" {
		s.baseURL = defaultBaseURL
	}

	s.apiKey = os.Getenv("API_KEY")
	if s.apiKey == "" {
		s.apiKey = defaultAPIKey
	}

	s.client = &http.Client{
		Timeout: 30 * time.Second,
	}

	// Verify server is running
	resp, err := s.client.Get(s.baseURL + "/health")
	require.NoError(s.T(), err, "Backend server must be running on %s", s.baseURL)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode, "Health check should return 200")
}

func (s *APITestSuite) TearDownSuite() {
	// Cleanup created resources
	for _, id := range s.createdAliasIDs {
		s.deleteResource(fmt.Sprintf("/api/aliases/%d", id))
	}
	for _, id := range s.createdMailboxIDs {
		s.deleteResource(fmt.Sprintf("/api/mailboxes/%d", id))
	}
}

// Helper methods
func (s *APITestSuite) doRequest(method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	return s.client.Do(req)
}

func (s *APITestSuite) deleteResource(path string) {
	resp, _ := s.doRequest(http.MethodDelete, path, nil)
	if resp != nil {
		resp.Body.Close()
	}
}

func (s *APITestSuite) parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *APITestSuite) TestHealth_ReturnsHealthy() {
	resp, err := s.client.Get(s.baseURL + "/health")
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "healthy", result["status"])
}

func (s *APITestSuite) TestReady_ReturnsReady() {
	resp, err := s.client.Get(s.baseURL + "/ready")
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "ready", result["status"])
}

// =============================================================================
// MAILBOX ENDPOINTS
// =============================================================================

func (s *APITestSuite) TestMailbox_CRUD_Flow() {
	// CREATE MAILBOX
	username := fmt.Sprintf("apitest%d", time.Now().UnixNano()%1000000)
	mailboxReq := map[string]interface{}{
		"username": username,
	}

	resp, err := s.doRequest(http.MethodPost, "/api/mailboxes", mailboxReq)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var mailboxResult struct {
		Success bool `json:"success"`
		Data    struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	err = s.parseResponse(resp, &mailboxResult)
	require.NoError(s.T(), err)
	assert.True(s.T(), mailboxResult.Success)
	assert.Equal(s.T(), username, mailboxResult.Data.Username)

	mailboxID := mailboxResult.Data.ID
	s.createdMailboxIDs = append(s.createdMailboxIDs, mailboxID)

	// GET MAILBOX
	resp, err = s.doRequest(http.MethodGet, fmt.Sprintf("/api/mailboxes/%d", mailboxID), nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// LIST MAILBOXES
	resp, err = s.doRequest(http.MethodGet, "/api/mailboxes", nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var listResult struct {
		Success bool          `json:"success"`
		Data    []interface{} `json:"data"`
		Meta    struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	s.parseResponse(resp, &listResult)
	assert.True(s.T(), listResult.Meta.Total >= 1)

	// DELETE MAILBOX
	resp, err = s.doRequest(http.MethodDelete, fmt.Sprintf("/api/mailboxes/%d", mailboxID), nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	s.createdMailboxIDs = s.createdMailboxIDs[:len(s.createdMailboxIDs)-1]

	// Verify deleted
	resp, err = s.doRequest(http.MethodGet, fmt.Sprintf("/api/mailboxes/%d", mailboxID), nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *APITestSuite) TestMailbox_CreateRandom() {
	resp, err := s.doRequest(http.MethodPost, "/api/mailboxes/random", nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	s.parseResponse(resp, &result)
	assert.Len(s.T(), result.Data.Username, 8) // Random username is 8 chars
	s.createdMailboxIDs = append(s.createdMailboxIDs, result.Data.ID)
}

func (s *APITestSuite) TestMailbox_Create_EmptyUsername_Returns400() {
	mailboxReq := map[string]interface{}{
		"username": "",
	}

	resp, err := s.doRequest(http.MethodPost, "/api/mailboxes", mailboxReq)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
}

func (s *APITestSuite) TestMailbox_Create_Duplicate_Returns409() {
	username := fmt.Sprintf("dup%d", time.Now().UnixNano()%1000000)
	mailboxReq := map[string]interface{}{
		"username": username,
	}

	// First create
	resp, err := s.doRequest(http.MethodPost, "/api/mailboxes", mailboxReq)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	s.parseResponse(resp, &result)
	s.createdMailboxIDs = append(s.createdMailboxIDs, result.Data.ID)

	// Duplicate create
	resp, err = s.doRequest(http.MethodPost, "/api/mailboxes", mailboxReq)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusConflict, resp.StatusCode)
}

func (s *APITestSuite) TestMailbox_Get_NotFound_Returns404() {
	resp, err := s.doRequest(http.MethodGet, "/api/mailboxes/999999", nil)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

func (s *APITestSuite) TestMailbox_List_WithPagination() {
	resp, err := s.doRequest(http.MethodGet, "/api/mailboxes?limit=10&offset=0", nil)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var result struct {
		Meta struct {
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		} `json:"meta"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(s.T(), 10, result.Meta.Limit)
	assert.Equal(s.T(), 0, result.Meta.Offset)
}

func (s *APITestSuite) TestMailbox_Forwarding_SelfTarget_Returns422() {
	// Create a mailbox
	username := fmt.Sprintf("loop%d", time.Now().UnixNano()%1000000)
	resp, err := s.doRequest(http.MethodPost, "/api/mailboxes", map[string]interface{}{
		"username": username,
	})
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	s.parseResponse(resp, &result)
	s.createdMailboxIDs = append(s.createdMailboxIDs, result.Data.ID)

	// Forwarding to the mailbox's own address on a sibling domain
	resp, err = s.doRequest(http.MethodPut, fmt.Sprintf("/api/mailboxes/%d/forwarding", result.Data.ID), map[string]interface{}{
		"enabled":    true,
		"forward_to": username + "@z.org",
	})
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusUnprocessableEntity, resp.StatusCode)
}

// =============================================================================
// ALIAS ENDPOINTS
// =============================================================================

func (s *APITestSuite) TestAlias_CRUD_Flow() {
	aliasEmail := fmt.Sprintf("alias%d@z.org", time.Now().UnixNano()%1000000)

	// CREATE ALIAS
	resp, err := s.doRequest(http.MethodPost, "/api/aliases", map[string]interface{}{
		"alias_email":  aliasEmail,
		"target_email": "inbox@gmail.com",
		"user_id":      1,
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var aliasResult struct {
		Success bool `json:"success"`
		Data    struct {
			ID         uint   `json:"id"`
			AliasEmail string `json:"alias_email"`
		} `json:"data"`
	}
	err = s.parseResponse(resp, &aliasResult)
	require.NoError(s.T(), err)
	assert.True(s.T(), aliasResult.Success)

	aliasID := aliasResult.Data.ID
	s.createdAliasIDs = append(s.createdAliasIDs, aliasID)

	// GET ALIAS
	resp, err = s.doRequest(http.MethodGet, fmt.Sprintf("/api/aliases/%d", aliasID), nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// LIST ALIASES
	resp, err = s.doRequest(http.MethodGet, "/api/aliases?user_id=1", nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// UPDATE (disable)
	resp, err = s.doRequest(http.MethodPut, fmt.Sprintf("/api/aliases/%d", aliasID), map[string]interface{}{
		"enabled": false,
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// DELETE
	resp, err = s.doRequest(http.MethodDelete, fmt.Sprintf("/api/aliases/%d", aliasID), nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	s.createdAliasIDs = s.createdAliasIDs[:len(s.createdAliasIDs)-1]
}

func (s *APITestSuite) TestAlias_Create_SelfTarget_Returns422() {
	aliasEmail := fmt.Sprintf("self%d@z.org", time.Now().UnixNano()%1000000)
	local := aliasEmail[:len(aliasEmail)-len("@z.org")]

	// Alias targeting itself on the sibling domain closes a loop
	resp, err := s.doRequest(http.MethodPost, "/api/aliases", map[string]interface{}{
		"alias_email":  aliasEmail,
		"target_email": local + "@elektrine.com",
		"user_id":      1,
	})
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusUnprocessableEntity, resp.StatusCode)
}

func (s *APITestSuite) TestAlias_List_MissingUserID_Returns400() {
	resp, err := s.doRequest(http.MethodGet, "/api/aliases", nil)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// RESOLVE ENDPOINT
// =============================================================================

func (s *APITestSuite) TestResolve_UnsupportedDomain() {
	resp, err := s.doRequest(http.MethodGet, "/api/resolve?address=user@elsewhere.com", nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Outcome string `json:"outcome"`
			Reason  string `json:"reason"`
		} `json:"data"`
	}
	s.parseResponse(resp, &result)
	assert.Equal(s.T(), "rejected", result.Data.Outcome)
}

func (s *APITestSuite) TestResolve_MissingAddress_Returns400() {
	resp, err := s.doRequest(http.MethodGet, "/api/resolve", nil)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// MESSAGE ENDPOINTS
// =============================================================================

func (s *APITestSuite) TestMessage_List_ForMailbox() {
	// Create mailbox
	username := fmt.Sprintf("msg%d", time.Now().UnixNano()%1000000)
	resp, err := s.doRequest(http.MethodPost, "/api/mailboxes", map[string]interface{}{
		"username": username,
	})
	require.NoError(s.T(), err)

	var mailboxResult struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	s.parseResponse(resp, &mailboxResult)
	s.createdMailboxIDs = append(s.createdMailboxIDs, mailboxResult.Data.ID)

	// List messages (should be empty but endpoint should work)
	resp, err = s.doRequest(http.MethodGet, fmt.Sprintf("/api/mailboxes/%d/messages", mailboxResult.Data.ID), nil)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var result struct {
		Success bool          `json:"success"`
		Data    []interface{} `json:"data"`
		Meta    struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.True(s.T(), result.Success)
}

func (s *APITestSuite) TestMessage_Get_NotFound_Returns404() {
	resp, err := s.doRequest(http.MethodGet, "/api/messages/999999", nil)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

func (s *APITestSuite) TestMessage_MarkAsRead_NotFound_Returns404() {
	resp, err := s.doRequest(http.MethodPatch, "/api/messages/999999/read", nil)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

func (s *APITestSuite) TestMessage_Delete_NotFound_Returns404() {
	resp, err := s.doRequest(http.MethodDelete, "/api/messages/999999", nil)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// ATTACHMENT ENDPOINTS
// =============================================================================

func (s *APITestSuite) TestAttachment_Get_NotFound_Returns404() {
	resp, err := s.doRequest(http.MethodGet, "/api/attachments/999999", nil)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

func (s *APITestSuite) TestAttachment_Download_NotFound_Returns404() {
	resp, err := s.doRequest(http.MethodGet, "/api/attachments/999999/download", nil)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

func (s *APITestSuite) TestAttachment_List_MessageNotFound_Returns404() {
	resp, err := s.doRequest(http.MethodGet, "/api/messages/999999/attachments", nil)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// AUTHENTICATION TESTS
// =============================================================================

func (s *APITestSuite) TestAuth_MissingAPIKey_Returns401() {
	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/api/mailboxes", nil)
	require.NoError(s.T(), err)
	// No Authorization header

	resp, err := s.client.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *APITestSuite) TestAuth_InvalidAPIKey_Returns401() {
	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/api/mailboxes", nil)
	require.NoError(s.T(), err)
	req.Header.Set("Authorization", "Bearer invalid-api-key")

	resp, err := s.client.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *APITestSuite) TestAuth_HealthEndpoint_NoAuthRequired() {
	// Health endpoint should work without auth
	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/health", nil)
	require.NoError(s.T(), err)
	// No Authorization header

	resp, err := s.client.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
}

func (s *APITestSuite) TestAuth_ReadyEndpoint_NoAuthRequired() {
	// Ready endpoint should work without auth
	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/ready", nil)
	require.NoError(s.T(), err)
	// No Authorization header

	resp, err := s.client.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
}
