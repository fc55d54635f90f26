package engine

import "errors"

// Typed boundary errors (spec §7 "Invalid input"). ErrEmptyUserID,
// ErrFilterStrengthOutOfRange, ErrTopNOutOfRange and ErrInsufficientVotes are
// returned before any store call. ErrNoUsableEmbeddings and
// ErrDimensionMismatch are detected after reading from the store and before
// the user vector is written; on the feedback path the interaction row has
// already been recorded by then.
var (
	ErrEmptyUserID              = errors.New("engine: user_id must not be empty")
	ErrFilterStrengthOutOfRange = errors.New("engine: filter_strength must be in [0,1]")
	ErrTopNOutOfRange           = errors.New("engine: top_n must be >= 1")
	ErrDimensionMismatch        = errors.New("engine: vector dimension does not match the corpus embedding dimension")
	ErrInsufficientVotes        = errors.New("engine: onboarding requires at least 3 liked+disliked votes")
	ErrNoUsableEmbeddings       = errors.New("engine: none of the liked articles carry an embedding")
)
