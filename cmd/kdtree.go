package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/urfave/cli"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/kdtree"
)

// KDTreeFlags are the flags accepted by the kdtree command.
var KDTreeFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "points",
		Value: 100000,
		Usage: "number of random points in the unit cube",
	},
	cli.IntFlag{
		Name:  "queries",
		Value: 1000,
		Usage: "number of random query points",
	},
	cli.IntSliceFlag{
		Name:  "k",
		Usage: "neighbours per query; may be repeated (default 1, 8, 64)",
	},
	cli.Float64Flag{
		Name:  "radius",
		Value: 0.1,
		Usage: "maximum neighbour distance",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "random seed",
	},
}

type cloudPoint struct {
	pos core.Vec3
}

func (p cloudPoint) Position() core.Vec3 { return p.pos }

// kdtreeRow is the outcome of one batch of queries against one layout.
type kdtreeRow struct {
	layout    string
	k         int
	found     int
	perQuery  time.Duration
	mismatch  int
	buildTime time.Duration
}

// Time k-nearest-neighbour queries before and after balancing.
func KDTreeStats(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	ks := ctx.IntSlice("k")
	if len(ks) == 0 {
		ks = []int{1, 8, 64}
	}
	numPoints, numQueries := ctx.Int("points"), ctx.Int("queries")
	if numPoints <= 0 || numQueries <= 0 {
		return fmt.Errorf("points and queries must be positive, got %d and %d", numPoints, numQueries)
	}

	rows := benchmarkKDTree(numPoints, numQueries, ks, ctx.Float64("radius"), ctx.Int64("seed"))

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			r.layout,
			fmt.Sprintf("%d", r.k),
			fmt.Sprintf("%.2f", float64(r.found)/float64(numQueries)),
			r.perQuery.String(),
			fmt.Sprintf("%d", r.mismatch),
			r.buildTime.String(),
		})
	}
	logger.Noticef("k-d tree with %d points, %d queries\n%s", numPoints, numQueries,
		renderTable([]string{"Layout", "k", "Avg found", "Per query", "Mismatches", "Build"}, table))
	return nil
}

// benchmarkKDTree queries the same random points against the unbalanced
// and the balanced tree. Mismatches count queries whose balanced result
// size differs from the unbalanced one.
func benchmarkKDTree(numPoints, numQueries int, ks []int, radius float64, seed int64) []kdtreeRow {
	random := rand.New(rand.NewSource(seed))
	randomPoint := func() core.Vec3 {
		return core.NewVec3(random.Float64(), random.Float64(), random.Float64())
	}

	tree := kdtree.New[cloudPoint]()
	start := time.Now()
	for i := 0; i < numPoints; i++ {
		tree.AddPoint(cloudPoint{pos: randomPoint()}, 0)
	}
	insertTime := time.Since(start)

	queries := make([]core.Vec3, numQueries)
	for i := range queries {
		queries[i] = randomPoint()
	}

	run := func(k int, expected []int) (found int, counts []int, elapsed time.Duration, mismatch int) {
		counts = make([]int, len(queries))
		start := time.Now()
		for i, q := range queries {
			counts[i] = len(tree.Query(q, k, radius, 0))
		}
		elapsed = time.Since(start)
		for i, c := range counts {
			found += c
			if expected != nil && expected[i] != c {
				mismatch++
			}
		}
		return found, counts, elapsed / time.Duration(len(queries)), mismatch
	}

	unbalanced := make(map[int][]int, len(ks))
	var rows []kdtreeRow
	for _, k := range ks {
		found, counts, perQuery, _ := run(k, nil)
		unbalanced[k] = counts
		rows = append(rows, kdtreeRow{layout: "unbalanced", k: k, found: found, perQuery: perQuery, buildTime: insertTime})
	}

	start = time.Now()
	tree.Balance()
	balanceTime := time.Since(start)

	for _, k := range ks {
		found, _, perQuery, mismatch := run(k, unbalanced[k])
		rows = append(rows, kdtreeRow{layout: "balanced", k: k, found: found, perQuery: perQuery, mismatch: mismatch, buildTime: balanceTime})
	}
	return rows
}
