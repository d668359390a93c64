package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type recordResponse struct {
	TransactionID string `json:"transaction_id"`
	Item          string `json:"item"`
	Price         string `json:"price"`
}

type pairDebtResponse struct {
	Debtor   string           `json:"debtor"`
	Creditor string           `json:"creditor"`
	Total    string           `json:"total"`
	Records  []recordResponse `json:"records"`
}

func (a *API) handlePairDebt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	debtor, creditor := vars["debtor"], vars["creditor"]

	total, err := a.debts.UserToUser(r.Context(), debtor, creditor)
	if err != nil {
		http.Error(w, "failed to query debts", http.StatusInternalServerError)
		return
	}
	records, err := a.ledger.Get(r.Context(), debtor, creditor)
	if err != nil {
		http.Error(w, "failed to query debts", http.StatusInternalServerError)
		return
	}

	resp := pairDebtResponse{
		Debtor:   debtor,
		Creditor: creditor,
		Total:    total.StringFixed(2),
		Records:  make([]recordResponse, 0, len(records)),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, recordResponse{
			TransactionID: rec.TransactionID,
			Item:          rec.Item,
			Price:         rec.Price.StringFixed(2),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (a *API) handleTotalOwedBy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	total, err := a.debts.TotalOwedBy(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to query debts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"user": id,
		"owes": total.StringFixed(2),
	})
}

func (a *API) handleTotalOwedTo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	total, err := a.debts.TotalOwedTo(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to query debts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"user": id,
		"owed": total.StringFixed(2),
	})
}
