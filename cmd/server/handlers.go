// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package main

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"test-smith/cmd/common"
	"test-smith/pkg/notes"
	"test-smith/pkg/report"
	"test-smith/pkg/steps"
	"test-smith/pkg/workflow"
)

// server holds the long-lived System every handler shares; unlike the CLI,
// which builds one per invocation, this process builds it once at startup.
type server struct {
	system *common.System
}

type createRunRequest struct {
	Query    string `json:"query"`
	Workflow string `json:"workflow,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
}

type createRunResponse struct {
	ThreadID string `json:"thread_id"`
	Workflow string `json:"workflow"`
	Report   string `json:"report"`
	Error    string `json:"error,omitempty"`
}

type getRunResponse struct {
	ThreadID   string `json:"thread_id"`
	Workflow   string `json:"workflow"`
	StepName   string `json:"step_name"`
	StepIndex  int    `json:"step_index"`
	Done       bool   `json:"done"`
	FinalError string `json:"final_error,omitempty"`
	Report     string `json:"report,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	names := s.system.Registry.List()
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string]any{"workflows": names})
}

// handleCreateRun runs a workflow synchronously and returns the resulting
// report, mirroring `test-smith run` (cmd/cli/run.go) but over HTTP: the
// same Engine.Run / report.Build call sequence, minus the run-log file.
func (s *server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	workflowName := req.Workflow
	if workflowName == "" {
		workflowName = common.DeepResearchWorkflow
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.New().String()
	}

	start := time.Now()
	ctx := r.Context()
	initial := workflow.State{steps.Query: req.Query}

	result, runErr := s.system.Engine.Run(ctx, workflowName, initial, threadID)

	resp := createRunResponse{ThreadID: threadID, Workflow: workflowName}
	if runErr != nil {
		resp.Error = runErr.Error()
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	body := result.GetString(steps.FinalReport)
	cited := notesFromState(result)
	rpt := report.Build(req.Query, workflowName, threadID, start, body, cited)
	resp.Report = rpt.Render()

	writeJSON(w, http.StatusOK, resp)
}

// handleGetRun loads the most recent checkpoint for the given thread id,
// the same workflow.StateStore entry point the Engine checkpoints into
// after every step (pkg/workflow/store.go).
func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["thread_id"]
	if threadID == "" {
		writeError(w, http.StatusBadRequest, "thread_id is required")
		return
	}

	cp, err := s.system.StateStore.Load(r.Context(), threadID)
	if err != nil {
		writeError(w, http.StatusNotFound, "no run found for thread "+threadID)
		return
	}

	resp := getRunResponse{
		ThreadID:   cp.ThreadID,
		Workflow:   cp.Workflow,
		StepName:   cp.StepName,
		StepIndex:  cp.StepIndex,
		Done:       cp.Done,
		FinalError: cp.FinalError,
	}
	if cp.Done && cp.FinalError == "" {
		resp.Report = cp.State.GetString(steps.FinalReport)
	}

	writeJSON(w, http.StatusOK, resp)
}

func notesFromState(state workflow.State) []notes.AnalyzedNote {
	v, ok := state.Get(steps.Notes)
	if !ok {
		return nil
	}
	ns, _ := v.([]notes.AnalyzedNote)
	return ns
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
