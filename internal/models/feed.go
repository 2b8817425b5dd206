// Package models defines the domain types shared across the pipeline.
package models

import "fmt"

// Feed identifies one of the two vendor file families published per day.
type Feed string

const (
	// FeedAENC carries per-frontier hourly consumption readings.
	FeedAENC Feed = "aenc"

	// FeedTFROC carries per-frontier loss factor, market and voltage metadata.
	FeedTFROC Feed = "tfroc"
)

// Feeds lists the recognized feeds in processing order.
var Feeds = []Feed{FeedAENC, FeedTFROC}

// Prefix is the lowercase filename prefix of the feed.
func (f Feed) Prefix() string { return string(f) }

// Tier is the version tier of a published file. Higher values win.
type Tier int

const (
	TierNone Tier = iota
	Tier3
	Tier2
	Tier1
)

// TierOrder lists tiers from highest to lowest priority.
var TierOrder = []Tier{Tier1, Tier2, Tier3}

// Extension returns the filename extension bound to the tier.
func (t Tier) Extension() string {
	switch t {
	case Tier1:
		return ".TxF"
	case Tier2:
		return ".TxR"
	case Tier3:
		return ".Tx2"
	default:
		return ""
	}
}

func (t Tier) String() string {
	switch t {
	case Tier1:
		return "T1"
	case Tier2:
		return "T2"
	case Tier3:
		return "T3"
	default:
		return "none"
	}
}

// Candidate is a parsed vendor filename.
type Candidate struct {
	Name  string
	Feed  Feed
	Month int
	Day   int
	Tier  Tier
}

// DayKey returns the MMDD suffix shared by the AENC and TFROC files of one day.
func (c Candidate) DayKey() string {
	return fmt.Sprintf("%02d%02d", c.Month, c.Day)
}
