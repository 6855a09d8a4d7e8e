package arena

import (
	"math"

	"github.com/jlouis/glicko2"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
)

const (
	initialRating = 1500
	initialRD     = 350
	initialSigma  = 0.06
	glickoTau     = 0.5
)

type Rating struct {
	R     float64
	RD    float64
	Sigma float64
}

type Report struct {
	Games        int
	Wins         [2]int
	Timeouts     int
	WhiteWinRate float64
	MeanTurns    float64
	StdDevTurns  float64
	TotalMoves   int
	Ratings      [2]Rating
}

// Summarize folds outcomes into win counts, turn statistics and a Glicko-2
// rating per seat, updated game by game in order.
func Summarize(outcomes []Outcome) Report {
	report := Report{Games: len(outcomes)}
	if report.Games == 0 {
		return report
	}

	report.Wins[entity.White] = lo.CountBy(outcomes, func(outcome Outcome) bool {
		return outcome.Result.Winner == entity.White
	})
	report.Wins[entity.Red] = report.Games - report.Wins[entity.White]
	report.Timeouts = lo.CountBy(outcomes, func(outcome Outcome) bool {
		return outcome.Result.Reason == entity.ReasonTimeout
	})
	report.WhiteWinRate = float64(report.Wins[entity.White]) / float64(report.Games)

	turns := lo.Map(outcomes, func(outcome Outcome, _ int) float64 {
		return float64(outcome.Turns)
	})
	report.MeanTurns, report.StdDevTurns = stat.MeanStdDev(turns, nil)
	if math.IsNaN(report.StdDevTurns) {
		report.StdDevTurns = 0
	}

	report.TotalMoves = lo.SumBy(outcomes, func(outcome Outcome) int {
		return outcome.Result.WhiteMoves + outcome.Result.RedMoves
	})

	report.Ratings = rate(outcomes)

	return report
}

func rate(outcomes []Outcome) [2]Rating {
	ratings := [2]Rating{
		{R: initialRating, RD: initialRD, Sigma: initialSigma},
		{R: initialRating, RD: initialRD, Sigma: initialSigma},
	}

	for _, outcome := range outcomes {
		before := ratings
		for _, color := range entity.Colors {
			score := 0.0
			if outcome.Result.Winner == color {
				score = 1
			}

			self, opponent := before[color], before[color.Opponent()]
			r, rd, sigma := glicko2.Rank(self.R, self.RD, self.Sigma, []glicko2.Opponent{
				opponentRating{rating: opponent, score: score},
			}, glickoTau)
			ratings[color] = Rating{R: r, RD: rd, Sigma: sigma}
		}
	}

	return ratings
}

type opponentRating struct {
	rating Rating
	score  float64
}

func (that opponentRating) R() float64 {
	return that.rating.R
}

func (that opponentRating) RD() float64 {
	return that.rating.RD
}

func (that opponentRating) Sigma() float64 {
	return that.rating.Sigma
}

func (that opponentRating) SJ() float64 {
	return that.score
}
