package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	votingengine "agora/contexts/governance/voting-engine"
	governanceerrors "agora/contexts/governance/voting-engine/domain/errors"
	governancehttp "agora/contexts/governance/voting-engine/transport/http"
	capabilityservice "agora/contexts/identity-access/capability-service"
	capabilityerrors "agora/contexts/identity-access/capability-service/domain/errors"
	capabilityhttp "agora/contexts/identity-access/capability-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "agora/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	governance   votingengine.Module
	capabilities capabilityservice.Module
}

func New(
	governance votingengine.Module,
	capabilities capabilityservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		governance:   governance,
		capabilities: capabilities,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/governance/v1/proposals", s.handleCreateProposal)
	s.mux.HandleFunc("GET /api/governance/v1/proposals", s.handleListProposals)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}", s.handleGetProposal)
	s.mux.HandleFunc("POST /api/governance/v1/proposals/{proposal_id}/ballots", s.handleCastBallot)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}/ballots/{voter}", s.handleGetVoterBallot)
	s.mux.HandleFunc("POST /api/governance/v1/proposals/{proposal_id}/execute", s.handleExecuteProposal)
	s.mux.HandleFunc("POST /api/governance/v1/forward", s.handleForward)
	s.mux.HandleFunc("GET /api/governance/v1/config", s.handleGetQuorumConfig)
	s.mux.HandleFunc("PUT /api/governance/v1/config/quorum", s.handleSetMinQuorum)
	s.mux.HandleFunc("PUT /api/governance/v1/config/support", s.handleSetMinSupport)

	s.mux.HandleFunc("POST /api/capabilities/v1/grants", s.handleGrantCapability)
	s.mux.HandleFunc("POST /api/capabilities/v1/revocations", s.handleRevokeCapability)
	s.mux.HandleFunc("POST /api/capabilities/v1/check", s.handleCheckCapability)
	s.mux.HandleFunc("GET /api/capabilities/v1/actors/{actor}", s.handleListCapabilities)
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	creator := r.Header.Get("X-User-Id")
	if strings.TrimSpace(creator) == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req governancehttp.CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.CreateProposalHandler(r.Context(), creator, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.ListProposalsHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.GetProposalHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	voter := r.Header.Get("X-User-Id")
	if strings.TrimSpace(voter) == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}

	var req governancehttp.CastBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.CastBallotHandler(r.Context(), proposalID, voter, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVoterBallot(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	voter := r.PathValue("voter")
	resp, err := s.governance.Handler.GetVoterBallotHandler(r.Context(), proposalID, voter)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	caller := r.Header.Get("X-User-Id")
	resp, err := s.governance.Handler.ExecuteProposalHandler(r.Context(), proposalID, caller)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-User-Id")
	if strings.TrimSpace(caller) == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req governancehttp.ForwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.ForwardHandler(r.Context(), caller, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetQuorumConfig(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.GetQuorumConfigHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetMinQuorum(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-User-Id")
	if strings.TrimSpace(caller) == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req governancehttp.SetQuorumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.SetMinQuorumHandler(r.Context(), caller, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetMinSupport(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-User-Id")
	if strings.TrimSpace(caller) == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req governancehttp.SetQuorumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.SetMinSupportHandler(r.Context(), caller, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGrantCapability(w http.ResponseWriter, r *http.Request) {
	grantedBy := r.Header.Get("X-User-Id")
	if strings.TrimSpace(grantedBy) == "" {
		writeCapabilityError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req capabilityhttp.GrantCapabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCapabilityError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.capabilities.Handler.GrantCapabilityHandler(r.Context(), grantedBy, req)
	if err != nil {
		writeCapabilityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRevokeCapability(w http.ResponseWriter, r *http.Request) {
	revokedBy := r.Header.Get("X-User-Id")
	if strings.TrimSpace(revokedBy) == "" {
		writeCapabilityError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req capabilityhttp.RevokeCapabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCapabilityError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.capabilities.Handler.RevokeCapabilityHandler(r.Context(), revokedBy, req); err != nil {
		writeCapabilityDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckCapability(w http.ResponseWriter, r *http.Request) {
	var req capabilityhttp.CheckCapabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCapabilityError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Actor) == "" {
		req.Actor = r.Header.Get("X-User-Id")
	}

	resp, err := s.capabilities.Handler.CheckCapabilityHandler(r.Context(), req)
	if err != nil {
		writeCapabilityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCapabilities(w http.ResponseWriter, r *http.Request) {
	actor := r.PathValue("actor")
	resp, err := s.capabilities.Handler.ListCapabilitiesHandler(r.Context(), actor)
	if err != nil {
		writeCapabilityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseProposalID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := r.PathValue("proposal_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_proposal_id", "proposal_id must be an unsigned integer")
		return 0, false
	}
	return id, true
}

func writeGovernanceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, governanceerrors.ErrUnauthorized):
		writeGovernanceError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, governanceerrors.ErrProposalNotFound):
		writeGovernanceError(w, http.StatusNotFound, "proposal_not_found", err.Error())
	case errors.Is(err, governanceerrors.ErrNotEligible):
		writeGovernanceError(w, http.StatusForbidden, "not_eligible", err.Error())
	case errors.Is(err, governanceerrors.ErrInvalidBallot):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_ballot", err.Error())
	case errors.Is(err, governanceerrors.ErrNotExecutable):
		writeGovernanceError(w, http.StatusConflict, "not_executable", err.Error())
	case errors.Is(err, governanceerrors.ErrInvalidConfiguration):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "invalid_configuration", err.Error())
	case errors.Is(err, governanceerrors.ErrWeightOverflow):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "weight_overflow", err.Error())
	case errors.Is(err, governanceerrors.ErrActionFailed):
		writeGovernanceError(w, http.StatusBadGateway, "action_failed", err.Error())
	default:
		writeGovernanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCapabilityDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, capabilityerrors.ErrInvalidActor),
		errors.Is(err, capabilityerrors.ErrInvalidCapability):
		writeCapabilityError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, capabilityerrors.ErrGrantNotFound):
		writeCapabilityError(w, http.StatusNotFound, "grant_not_found", err.Error())
	case errors.Is(err, capabilityerrors.ErrForbidden):
		writeCapabilityError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeCapabilityError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeGovernanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, governancehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeCapabilityError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, capabilityhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
