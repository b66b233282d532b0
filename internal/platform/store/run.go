package store

import "context"

// RunForSurvey wraps ctx with the survey id (see SurveyID) and calls fn
// inside a transaction on the provided TxRunner. The catalog, synth and
// bulk-load services do not call it; they write through Store.PG and
// Store.Bulk directly
func RunForSurvey(ctx context.Context, tx TxRunner, surveyID string, fn func(ctx context.Context, q RowQuerier) error) error {
	ctx = WithSurvey(ctx, surveyID)
	return tx.Tx(ctx, func(q RowQuerier) error {
		return fn(ctx, q)
	})
}
