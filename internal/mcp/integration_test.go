package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/labreport-summarizer/internal/pdf/pdftest"
)

// rpc sends one JSON-RPC message through the MCP server and decodes the result
func rpc(t *testing.T, s *Server, message string) map[string]interface{} {
	t.Helper()
	response := s.mcpServer.HandleMessage(context.Background(), json.RawMessage(message))
	require.NotNil(t, response)

	raw, err := json.Marshal(response)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Nil(t, decoded["error"], string(raw))

	result, ok := decoded["result"].(map[string]interface{})
	require.True(t, ok, string(raw))
	return result
}

func TestServerIntegration_ToolsList(t *testing.T) {
	s, _ := newTestServer(t)

	result := rpc(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	tools, ok := result["tools"].([]interface{})
	require.True(t, ok)

	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]interface{})["name"].(string))
	}
	assert.ElementsMatch(t, []string{"summarize_reports", "scan_report", "list_columns"}, names)
}

func TestServerIntegration_SummarizeCall(t *testing.T) {
	s, dir := newTestServer(t)
	pdftest.WriteFile(t, dir, "reports/one.pdf", pdftest.Report("2022/12/31", [2]string{"Lead", "n.d."}))
	pdftest.WriteFile(t, dir, "reports/two.pdf", pdftest.Report("2023/01/15", [2]string{"Lead", "n.d."}, [2]string{"Cadmium", "2"}))

	result := rpc(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call",
		"params":{"name":"summarize_reports","arguments":{"directory":"reports"}}}`)

	assert.NotEqual(t, true, result["isError"])
	content := result["content"].([]interface{})
	require.NotEmpty(t, content)
	text := content[0].(map[string]interface{})["text"].(string)

	assert.Contains(t, text, "Pb:        n.d.")
	assert.Contains(t, text, "Cd:        2")
	assert.Contains(t, text, "Date:      2023/01/15")
	assert.Contains(t, text, "File Name: two.pdf")
}
