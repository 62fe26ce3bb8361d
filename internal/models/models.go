package models

import (
	"context"
	"time"
)

// Email represents an email message
type Email struct {
	ID        string
	Subject   string
	From      string
	Date      time.Time
	TextPlain string
	HTML      string
	Images    []Attachment
}

// Attachment is a binary part of an email or a notification
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// MailFilter selects the ticket confirmation emails
type MailFilter struct {
	From     string
	Subjects []string
}

// DrawResult is one published Euromillions draw
type DrawResult struct {
	ID               string
	Date             time.Time
	Numbers          []int
	Stars            []int
	HasJackpotWinner bool
	Prizes           []PrizePayout
}

// PrizePayout is the amount paid per winner for one (numbers, stars) category
type PrizePayout struct {
	Numbers int
	Stars   int
	Amount  float64
	Winners int
}

// PlayerSelection holds the player's fixed combination
type PlayerSelection struct {
	Numbers []int `validate:"len=5,unique,dive,min=1,max=50"`
	Stars   []int `validate:"len=2,unique,dive,min=1,max=12"`
}

// PrizeTier is one of the official prize categories. Rank 0 means no prize.
type PrizeTier struct {
	Rank    int
	Numbers int
	Stars   int
	Label   string
}

// Wins reports whether the tier pays out
func (t PrizeTier) Wins() bool {
	return t.Rank > 0
}

// MatchOutcome is the result of comparing a selection against a draw
type MatchOutcome struct {
	NumberMatches  int
	StarMatches    int
	MatchedNumbers []int
	MatchedStars   []int
	Tier           PrizeTier
	Payout         *PrizePayout
}

// Jackpot reports whether every number and star matched
func (o MatchOutcome) Jackpot() bool {
	return o.NumberMatches == 5 && o.StarMatches == 2
}

// TicketRecord holds the details extracted from a ticket confirmation email
type TicketRecord struct {
	Numbers    []string
	Stars      []string
	DrawDate   string
	Price      string
	MillonCode string
	MillonDate string
	BetCount   string
	Balance    string
	Reference  string
}

// Notification is a rendered message ready for delivery
type Notification struct {
	Subject string
	Text    string
	Image   *Attachment
}

// Notifier delivers a rendered notification
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// DrawFetcher returns the most recent draw
type DrawFetcher interface {
	FetchLatest(ctx context.Context) (DrawResult, error)
}

// MailSource returns the newest email matching a filter
type MailSource interface {
	FetchLatest(ctx context.Context, filter MailFilter) (Email, error)
}

// Ledger remembers which notifications were already delivered
type Ledger interface {
	Seen(key string) bool
	Record(key string) error
}
