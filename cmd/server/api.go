package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/polyphene/recs-contract/internal/domain"
	"github.com/polyphene/recs-contract/internal/events"
	"github.com/polyphene/recs-contract/internal/observability"
	"github.com/polyphene/recs-contract/internal/runtime"
)

// server exposes the runtime operations over HTTP.
type server struct {
	rt      *runtime.Runtime
	bus     *events.Bus
	metrics *observability.Metrics
	logger  *log.Logger
}

func newServer(rt *runtime.Runtime, bus *events.Bus, metrics *observability.Metrics, logger *log.Logger) *server {
	return &server{rt: rt, bus: bus, metrics: metrics, logger: logger}
}

// routes wires every endpoint.
func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	// Operations
	mux.HandleFunc("POST /api/roles/grant", s.handleGrant)
	mux.HandleFunc("POST /api/certificates", s.handleMint)
	mux.HandleFunc("POST /api/certificates/{id}/redeem", s.handleRedeem)
	mux.HandleFunc("POST /api/certificates/{id}/statement", s.handleSetStatement)
	mux.HandleFunc("POST /api/approvals", s.handleSetApproval)
	mux.HandleFunc("POST /api/transfers", s.handleTransfer)
	mux.HandleFunc("POST /api/listings", s.handleList)
	mux.HandleFunc("POST /api/purchases", s.handleBuy)
	mux.HandleFunc("POST /api/bank/deposit", s.handleDeposit)

	// Queries
	mux.HandleFunc("GET /api/certificates/{id}", s.handleCertificate)
	mux.HandleFunc("GET /api/certificates/{id}/holdings", s.handleHoldings)
	mux.HandleFunc("GET /api/certificates/{id}/purchases", s.handlePurchaseHistory)
	mux.HandleFunc("GET /api/balances", s.handleBalance)
	mux.HandleFunc("GET /api/listings", s.handleCurrentListings)
	mux.HandleFunc("GET /api/journal", s.handleJournal)

	// Feed, health, metrics
	mux.HandleFunc("GET /ws", s.handleFeed)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	return mux
}

type grantRequest struct {
	Caller  domain.Address `json:"caller"`
	Role    domain.Role    `json:"role"`
	Account domain.Address `json:"account"`
}

func (s *server) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.rt.Grant(r.Context(), req.Caller, req.Role, req.Account); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "granted"})
}

type mintRequest struct {
	Caller      domain.Address   `json:"caller"`
	MetadataURI string           `json:"metadata_uri"`
	Amount      uint64           `json:"amount"`
	Recipients  []domain.Address `json:"recipients"`
	Allocations []uint64         `json:"allocations"`
	Redeemed    []bool           `json:"redeemed"`
}

func (s *server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if !s.decode(w, r, &req) {
		return
	}
	tokenID, err := s.rt.Mint(r.Context(), req.Caller, req.MetadataURI, req.Amount,
		req.Recipients, req.Allocations, req.Redeemed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]uint64{"token_id": tokenID})
}

type redeemRequest struct {
	Caller domain.Address `json:"caller"`
	Amount uint64         `json:"amount"`
}

func (s *server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := s.pathTokenID(w, r)
	if !ok {
		return
	}
	var req redeemRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.rt.Redeem(r.Context(), req.Caller, tokenID, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "redeemed"})
}

type statementRequest struct {
	Caller       domain.Address `json:"caller"`
	StatementURI string         `json:"statement_uri"`
}

func (s *server) handleSetStatement(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := s.pathTokenID(w, r)
	if !ok {
		return
	}
	var req statementRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.rt.SetRedemptionStatement(r.Context(), req.Caller, tokenID, req.StatementURI); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "set"})
}

type approvalRequest struct {
	Owner    domain.Address `json:"owner"`
	Operator domain.Address `json:"operator"`
	Approved bool           `json:"approved"`
}

func (s *server) handleSetApproval(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.rt.SetApprovalForAll(r.Context(), req.Owner, req.Operator, req.Approved); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "set"})
}

type transferRequest struct {
	Caller  domain.Address `json:"caller"`
	From    domain.Address `json:"from"`
	To      domain.Address `json:"to"`
	TokenID uint64         `json:"token_id"`
	Amount  uint64         `json:"amount"`
}

func (s *server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.rt.Transfer(r.Context(), req.Caller, req.From, req.To, req.TokenID, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

type listRequest struct {
	Caller    domain.Address `json:"caller"`
	TokenID   uint64         `json:"token_id"`
	Amount    uint64         `json:"amount"`
	UnitPrice string         `json:"unit_price"` // decimal string
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if !s.decode(w, r, &req) {
		return
	}
	price, err := uint256.FromDecimal(req.UnitPrice)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid unit_price"})
		return
	}
	if err := s.rt.List(r.Context(), req.Caller, req.TokenID, req.Amount, price); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "listed"})
}

type buyRequest struct {
	Caller  domain.Address `json:"caller"`
	TokenID uint64         `json:"token_id"`
	Seller  domain.Address `json:"seller"`
	Amount  uint64         `json:"amount"`
	Paid    string         `json:"paid"` // decimal string
}

func (s *server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !s.decode(w, r, &req) {
		return
	}
	paid, err := uint256.FromDecimal(req.Paid)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid paid value"})
		return
	}
	if err := s.rt.Buy(r.Context(), req.Caller, req.TokenID, req.Seller, req.Amount, paid); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "purchased"})
}

type depositRequest struct {
	Account domain.Address `json:"account"`
	Value   string         `json:"value"` // decimal string
}

func (s *server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !s.decode(w, r, &req) {
		return
	}
	value, err := uint256.FromDecimal(req.Value)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid value"})
		return
	}
	s.rt.Deposit(r.Context(), req.Account, value)
	s.writeJSON(w, http.StatusOK, map[string]string{
		"balance": s.rt.NativeBalanceOf(req.Account).Dec(),
	})
}

type certificateResponse struct {
	TokenID             uint64         `json:"token_id"`
	Minter              domain.Address `json:"minter"`
	MetadataURI         string         `json:"metadata_uri"`
	TotalSupply         uint64         `json:"total_supply"`
	RedeemedSupply      uint64         `json:"redeemed_supply"`
	RedemptionStatement string         `json:"redemption_statement,omitempty"`
}

func (s *server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := s.pathTokenID(w, r)
	if !ok {
		return
	}
	cert := s.rt.Certificate(tokenID)
	if cert == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown token id"})
		return
	}
	s.writeJSON(w, http.StatusOK, certificateResponse{
		TokenID:             cert.TokenID,
		Minter:              cert.Minter,
		MetadataURI:         cert.MetadataURI,
		TotalSupply:         cert.TotalSupply,
		RedeemedSupply:      cert.RedeemedSupply,
		RedemptionStatement: cert.RedemptionStatement,
	})
}

func (s *server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := s.pathTokenID(w, r)
	if !ok {
		return
	}
	caller := domain.Address(r.URL.Query().Get("caller"))
	holdings, err := s.rt.Holdings(caller, tokenID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, holdings)
}

func (s *server) handlePurchaseHistory(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := s.pathTokenID(w, r)
	if !ok {
		return
	}
	purchases, err := s.rt.PurchaseHistory(r.Context(), tokenID)
	if err != nil {
		s.logger.Printf("purchase history query: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "archive unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, purchases)
}

type balanceResponse struct {
	Account        domain.Address `json:"account"`
	TokenID        uint64         `json:"token_id"`
	Balance        uint64         `json:"balance"`
	AmountRedeemed uint64         `json:"amount_redeemed"`
	Native         string         `json:"native"`
}

func (s *server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account := domain.Address(r.URL.Query().Get("account"))
	tokenID, err := strconv.ParseUint(r.URL.Query().Get("token_id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid token_id"})
		return
	}
	s.writeJSON(w, http.StatusOK, balanceResponse{
		Account:        account,
		TokenID:        tokenID,
		Balance:        s.rt.BalanceOf(account, tokenID),
		AmountRedeemed: s.rt.AmountRedeemed(account, tokenID),
		Native:         s.rt.NativeBalanceOf(account).Dec(),
	})
}

type listingResponse struct {
	TokenID   uint64         `json:"token_id"`
	Seller    domain.Address `json:"seller"`
	Amount    uint64         `json:"amount"`
	UnitPrice string         `json:"unit_price"`
}

func (s *server) handleCurrentListings(w http.ResponseWriter, r *http.Request) {
	listings := s.rt.CurrentListings()
	out := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, listingResponse{
			TokenID:   l.TokenID,
			Seller:    l.Seller,
			Amount:    l.Amount,
			UnitPrice: l.UnitPrice.Dec(),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type journalEntry struct {
	Seq        uint64           `json:"seq"`
	OpID       string           `json:"op_id"`
	Kind       domain.EventKind `json:"kind"`
	Payload    json.RawMessage  `json:"payload"`
	RecordedAt int64            `json:"recorded_at"`
}

func (s *server) handleJournal(w http.ResponseWriter, r *http.Request) {
	start, err := strconv.ParseUint(r.URL.Query().Get("start"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start"})
		return
	}
	end, err := strconv.ParseUint(r.URL.Query().Get("end"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end"})
		return
	}

	recs, err := s.rt.JournalRange(r.Context(), start, end)
	if err != nil {
		s.logger.Printf("journal query: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "journal unavailable"})
		return
	}
	out := make([]journalEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, journalEntry{
			Seq:        rec.Seq,
			OpID:       rec.OpID,
			Kind:       rec.Kind,
			Payload:    json.RawMessage(rec.Payload),
			RecordedAt: rec.RecordedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// decode reads the JSON request body; writes a 400 and returns false on
// malformed input.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

// pathTokenID parses the {id} path segment.
func (s *server) pathTokenID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	tokenID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid token id"})
		return 0, false
	}
	return tokenID, true
}

func (s *server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

// writeError maps a domain failure to its HTTP status and stable reason.
func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsAuthorization(err):
		status = http.StatusForbidden
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case domain.IsState(err):
		status = http.StatusConflict
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		s.writeJSON(w, status, map[string]string{"error": domainErr.Reason})
		return
	}
	s.logger.Printf("internal error: %v", err)
	s.writeJSON(w, status, map[string]string{"error": "internal error"})
}
