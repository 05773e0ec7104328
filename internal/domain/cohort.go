package domain

import "time"

// UnknownSource is the acquisition source and label type of unlabeled wallets.
const UnknownSource = "unknown"

// WalletCohortAssignment records the first-ever interaction of a wallet.
// Exactly one row per wallet.
type WalletCohortAssignment struct {
	WalletAddress        string
	FirstProtocol        string
	FirstTxType          string
	FirstTxHash          string
	FirstInteractionDate time.Time // UTC midnight
	FirstInteractionAt   time.Time
	CohortWeek           time.Time // ISO week floor of FirstInteractionAt
	CohortID             string    // "IYYY-IW"
	AcquisitionSource    string
	LabelType            string
}

// CohortSize is the number of wallets in a (cohort, acquisition source) group.
type CohortSize struct {
	CohortID          string
	AcquisitionSource string
	Wallets           int
}
