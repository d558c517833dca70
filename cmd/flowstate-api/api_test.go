package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/flowstate/pkg/models"
	"github.com/dukex/flowstate/pkg/persistence/file"
	"github.com/dukex/flowstate/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(tempDir string) *fiber.App {
	persistence := file.NewPersistence(tempDir)

	api := NewAPI(slog.Default(), persistence)

	return api.App()
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Flowstate API", string(body))
}

func TestAPI_Liveness(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_GetDefinitions_Empty(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/definitions", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var definitions []models.WorkflowDefinition

	err = json.NewDecoder(resp.Body).Decode(&definitions)
	require.NoError(t, err)
	assert.Empty(t, definitions)
}

func TestAPI_CORS_Headers(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodOptions, "/definitions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_Integration_ApprovalFlow(t *testing.T) {
	app := setupTestApp(t.TempDir())

	payload, err := json.Marshal(web.CreateDefinitionRequest{
		Name: "Document Approval",
		States: []web.StateRequest{
			{ID: "draft", Name: "Draft", IsInitial: true},
			{ID: "review", Name: "In Review"},
			{ID: "approved", Name: "Approved", IsFinal: true},
		},
		Actions: []web.ActionRequest{
			{ID: "submit", Name: "Submit", FromStates: []string{"draft"}, ToState: "review"},
			{ID: "approve", Name: "Approve", FromStates: []string{"review"}, ToState: "approved"},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/definitions", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var def models.WorkflowDefinition

	err = json.NewDecoder(resp.Body).Decode(&def)
	require.NoError(t, err)
	require.NotEmpty(t, def.ID)

	payload, err = json.Marshal(web.CreateInstanceRequest{DefinitionID: def.ID})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/instances", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var instance models.WorkflowInstance

	err = json.NewDecoder(resp.Body).Decode(&instance)
	require.NoError(t, err)
	assert.Equal(t, "draft", instance.CurrentStateID)

	for _, action := range []string{"submit", "approve"} {
		req = httptest.NewRequest(http.MethodPost, "/instances/"+instance.ID+"/actions/"+action, nil)
		resp, err = app.Test(req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/instances/"+instance.ID, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var final models.WorkflowInstance

	err = json.NewDecoder(resp.Body).Decode(&final)
	require.NoError(t, err)
	assert.Equal(t, "approved", final.CurrentStateID)
	assert.Len(t, final.History, 2)
}
