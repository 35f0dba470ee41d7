package colour

import (
	"fmt"
	"image"
	"math"
	"math/rand"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/image/draw"
)

// KMeansExtractor implements color extraction using k-means clustering.
// It holds only configuration and is safe for concurrent use.
type KMeansExtractor struct {
	cfg    ExtractorConfig
	logger hclog.Logger
}

// NewKMeansExtractor creates a KMeansExtractor. Zero-valued numeric fields in
// cfg fall back to the package defaults.
func NewKMeansExtractor(cfg ExtractorConfig) *KMeansExtractor {
	def := DefaultExtractorConfig()
	if cfg.WorkingSize <= 0 {
		cfg.WorkingSize = def.WorkingSize
	}
	if cfg.Restarts <= 0 {
		cfg.Restarts = def.Restarts
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.Tolerance < 0 {
		cfg.Tolerance = def.Tolerance
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &KMeansExtractor{
		cfg:    cfg,
		logger: logger.Named("kmeans"),
	}
}

// Extract resamples img to the working resolution and clusters its pixels
// into exactly count colours. Colours are returned in cluster index order
// with their relative cluster sizes as weights.
func (e *KMeansExtractor) Extract(img image.Image, count int) (*Palette, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: color count must be at least 1, got %d", ErrInvalidArgument, count)
	}

	working := resample(img, e.cfg.WorkingSize)
	points := toPoints(working)
	if count > len(points) {
		return nil, fmt.Errorf("%w: color count %d exceeds the %d pixels available", ErrInvalidArgument, count, len(points))
	}

	e.logger.Debug("prepared working image",
		"source", fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()),
		"working", fmt.Sprintf("%dx%d", e.cfg.WorkingSize, e.cfg.WorkingSize),
		"points", len(points))

	best, err := e.cluster(points, count)
	if err != nil {
		return nil, err
	}

	colors := make([]RGB, len(best.centroids))
	for i, c := range best.centroids {
		colors[i] = RGB{R: truncateChannel(c.R), G: truncateChannel(c.G), B: truncateChannel(c.B)}
	}

	return NewPaletteWithWeights(colors, best.weights), nil
}

// point3D represents a point in 3D RGB color space.
type point3D struct {
	R, G, B float64
}

// distanceSq returns the squared Euclidean distance between two points.
func (p point3D) distanceSq(other point3D) float64 {
	dr := p.R - other.R
	dg := p.G - other.G
	db := p.B - other.B
	return dr*dr + dg*dg + db*db
}

func (p point3D) isNaN() bool {
	return math.IsNaN(p.R) || math.IsNaN(p.G) || math.IsNaN(p.B)
}

// kmeansResult is the outcome of one k-means++ initialisation.
type kmeansResult struct {
	centroids  []point3D
	weights    []float64
	inertia    float64
	iterations int
}

// resample scales img to a size x size RGBA image using Catmull-Rom.
func resample(img image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// toPoints flattens an image into RGB points, row by row.
func toPoints(img *image.RGBA) []point3D {
	bounds := img.Bounds()
	points := make([]point3D, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgb := ToRGB(img.RGBAAt(x, y))
			points = append(points, point3D{R: float64(rgb.R), G: float64(rgb.G), B: float64(rgb.B)})
		}
	}
	return points
}

// truncateChannel converts a centroid component to a channel value by
// truncating toward zero and clamping to [0, 255].
func truncateChannel(v float64) uint8 {
	t := math.Trunc(v)
	if t < 0 {
		return 0
	}
	if t > 255 {
		return 255
	}
	return uint8(t)
}

// cluster runs every restart on a bounded worker pool and keeps the result
// with the lowest inertia. Each restart has its own RNG seeded from a master
// source, so the outcome does not depend on scheduling.
func (e *KMeansExtractor) cluster(points []point3D, k int) (kmeansResult, error) {
	restarts := e.cfg.Restarts
	master := rand.New(rand.NewSource(e.cfg.Seed)) // #nosec G404 -- reproducible clustering, not security sensitive
	seeds := make([]int64, restarts)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	tol := e.cfg.Tolerance * meanVariance(points)

	results := make([]kmeansResult, restarts)
	errs := make([]error, restarts)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w, n := 0, e.cfg.workerCount(); w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewSource(seeds[i])) // #nosec G404 -- reproducible clustering
				results[i], errs[i] = e.lloyd(points, k, rng, tol)
			}
		}()
	}
	for i := 0; i < restarts; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	bestIdx := -1
	for i := range results {
		if errs[i] != nil {
			return kmeansResult{}, fmt.Errorf("restart %d: %w", i, errs[i])
		}
		e.logger.Debug("restart finished", "restart", i, "iterations", results[i].iterations, "inertia", results[i].inertia)
		if bestIdx < 0 || results[i].inertia < results[bestIdx].inertia {
			bestIdx = i
		}
	}

	e.logger.Debug("selected restart", "restart", bestIdx, "inertia", results[bestIdx].inertia)
	return results[bestIdx], nil
}

// meanVariance returns the mean of the per-channel variances of points.
func meanVariance(points []point3D) float64 {
	n := float64(len(points))
	var mean point3D
	for _, p := range points {
		mean.R += p.R
		mean.G += p.G
		mean.B += p.B
	}
	mean.R /= n
	mean.G /= n
	mean.B /= n

	var variance float64
	for _, p := range points {
		variance += p.distanceSq(mean)
	}
	return variance / n / 3
}

// lloyd performs one k-means run: k-means++ seeding followed by Lloyd
// iterations until labels stop changing, the summed squared centroid shift
// drops to tol, or the iteration cap is hit.
func (e *KMeansExtractor) lloyd(points []point3D, k int, rng *rand.Rand, tol float64) (kmeansResult, error) {
	centroids := initializeCentroidsKMeansPlusPlus(points, k, rng)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	iterations := 0
	for iter := 0; iter < e.cfg.MaxIterations; iter++ {
		iterations = iter + 1

		changed := assign(points, centroids, labels)
		if !changed {
			break
		}

		newCentroids := recalculateCentroids(points, labels, centroids)

		shift := 0.0
		for i := range centroids {
			shift += centroids[i].distanceSq(newCentroids[i])
		}
		centroids = newCentroids

		if shift <= tol {
			break
		}
	}

	// Final assignment so weights and inertia match the returned centroids.
	assign(points, centroids, labels)

	weights := make([]float64, k)
	inertia := 0.0
	for i, p := range points {
		weights[labels[i]]++
		inertia += p.distanceSq(centroids[labels[i]])
	}
	for i := range weights {
		weights[i] /= float64(len(points))
	}

	for i, c := range centroids {
		if c.isNaN() {
			return kmeansResult{}, fmt.Errorf("%w: centroid %d is not a number", ErrClustering, i)
		}
	}
	if math.IsNaN(inertia) || math.IsInf(inertia, 0) {
		return kmeansResult{}, fmt.Errorf("%w: inertia is not finite", ErrClustering)
	}

	return kmeansResult{
		centroids:  centroids,
		weights:    weights,
		inertia:    inertia,
		iterations: iterations,
	}, nil
}

// initializeCentroidsKMeansPlusPlus picks k initial centroids using greedy
// k-means++: each step samples 2+ln(k) candidates proportionally to their
// squared distance from the nearest chosen centroid and keeps the candidate
// that lowers the total potential most.
func initializeCentroidsKMeansPlusPlus(points []point3D, k int, rng *rand.Rand) []point3D {
	n := len(points)
	centroids := make([]point3D, 0, k)
	centroids = append(centroids, points[rng.Intn(n)])

	closest := make([]float64, n)
	potential := 0.0
	for i, p := range points {
		closest[i] = p.distanceSq(centroids[0])
		potential += closest[i]
	}

	trials := 2 + int(math.Log(float64(k)))
	cumulative := make([]float64, n)
	candidateDist := make([]float64, n)
	bestDist := make([]float64, n)

	for len(centroids) < k {
		running := 0.0
		for i, d := range closest {
			running += d
			cumulative[i] = running
		}

		bestIdx := -1
		bestPotential := math.Inf(1)
		for t := 0; t < trials; t++ {
			idx := searchCumulative(cumulative, rng.Float64()*potential)

			candidatePotential := 0.0
			for i, p := range points {
				candidateDist[i] = min(closest[i], p.distanceSq(points[idx]))
				candidatePotential += candidateDist[i]
			}

			if candidatePotential < bestPotential {
				bestPotential = candidatePotential
				bestIdx = idx
				copy(bestDist, candidateDist)
			}
		}

		centroids = append(centroids, points[bestIdx])
		potential = bestPotential
		copy(closest, bestDist)
	}

	return centroids
}

// searchCumulative returns the first index whose cumulative sum reaches target.
// A zero target (all points coincide with chosen centroids) selects index 0.
func searchCumulative(cumulative []float64, target float64) int {
	lo, hi := 0, len(cumulative)
	for lo < hi {
		mid := (lo + hi) / 2
		if cumulative[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return min(lo, len(cumulative)-1)
}

// assign labels each point with its nearest centroid and reports whether
// any label changed.
func assign(points []point3D, centroids []point3D, labels []int) bool {
	changed := false
	for i, p := range points {
		nearest := findNearestCentroid(p, centroids)
		if labels[i] != nearest {
			labels[i] = nearest
			changed = true
		}
	}
	return changed
}

// findNearestCentroid finds the index of the nearest centroid to a point.
// Ties go to the lowest index.
func findNearestCentroid(point point3D, centroids []point3D) int {
	minDist := math.MaxFloat64
	nearest := 0

	for i, centroid := range centroids {
		dist := point.distanceSq(centroid)
		if dist < minDist {
			minDist = dist
			nearest = i
		}
	}

	return nearest
}

// recalculateCentroids moves every centroid to the mean of its points.
// An empty cluster is moved onto the point farthest from its own centroid,
// taking distinct points for each empty cluster.
func recalculateCentroids(points []point3D, labels []int, previous []point3D) []point3D {
	k := len(previous)
	sums := make([]point3D, k)
	counts := make([]int, k)

	for i, point := range points {
		cluster := labels[i]
		sums[cluster].R += point.R
		sums[cluster].G += point.G
		sums[cluster].B += point.B
		counts[cluster]++
	}

	centroids := make([]point3D, k)
	var taken map[int]bool
	for i := 0; i < k; i++ {
		if counts[i] > 0 {
			centroids[i] = point3D{
				R: sums[i].R / float64(counts[i]),
				G: sums[i].G / float64(counts[i]),
				B: sums[i].B / float64(counts[i]),
			}
			continue
		}

		if taken == nil {
			taken = make(map[int]bool)
		}
		far := farthestPoint(points, labels, previous, taken)
		taken[far] = true
		centroids[i] = points[far]
	}

	return centroids
}

// farthestPoint returns the index of the point farthest from its assigned
// centroid, skipping indices already taken.
func farthestPoint(points []point3D, labels []int, centroids []point3D, taken map[int]bool) int {
	farIdx := 0
	farDist := -1.0
	for i, p := range points {
		if taken[i] {
			continue
		}
		d := p.distanceSq(centroids[labels[i]])
		if d > farDist {
			farDist = d
			farIdx = i
		}
	}
	return farIdx
}
