package entity

import (
	"errors"
	"fmt"
)

// Policy decides who picks moves for a seat.
type Policy string

const (
	PolicyHuman  Policy = "human"
	PolicyGreedy Policy = "greedy"
	PolicyRandom Policy = "random"
)

var ErrUnknownPolicy = errors.New("unknown policy")

func ParsePolicy(value string) (Policy, error) {
	switch policy := Policy(value); policy {
	case PolicyHuman, PolicyGreedy, PolicyRandom:
		return policy, nil
	case "":
		return PolicyHuman, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, value)
	}
}

type Player struct {
	Color  Color  `json:"color"`
	Policy Policy `json:"policy"`
}

func (that Player) IsBot() bool {
	return that.Policy == PolicyGreedy || that.Policy == PolicyRandom
}
