// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package rest exposes the gridder as a JSON API, an external collaborator
// in the sense of spec.md §1 -- the core package never imports it. Started
// only by the CLI's "serve" command.
package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mlnoga/skygrid/internal/gridder"
	"github.com/mlnoga/skygrid/internal/kernel"
)

// Serve starts the gin HTTP server on 0.0.0.0:8080, exposing sightline
// gridding as a JSON API.
func Serve() {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/grid", postGrid)
		}
	}
	r.Run() // listen and serve on 0.0.0.0:8080
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// gridRequest is the wire form of a sightline gridding job: unordered
// samples in, a kernel spec, and the target geometry parameters.
type gridRequest struct {
	LonsDeg             []float64   `json:"lonsDeg"`
	LatsDeg             []float64   `json:"latsDeg"`
	Data                [][]float64 `json:"data"`    // one channel vector per sample
	Weights             [][]float64 `json:"weights"` // optional, same shape as Data
	SpectralLen         int         `json:"spectralLen"`
	KernelKind          string      `json:"kernelKind"`
	KernelParams        []float64   `json:"kernelParams"`
	SupportRadiusDeg    float64     `json:"supportRadiusDeg"`
	HpxMaxResolutionDeg float64     `json:"hpxMaxResolutionDeg"`
}

// gridResponse reports summary statistics of the accumulated cubes rather
// than the cubes themselves, which can be large; EdgeX/EdgeY document the
// truncating shape/2 convention used to report the output's center pixel.
type gridResponse struct {
	C          int     `json:"c"`
	Ny         int     `json:"ny"`
	Nx         int     `json:"nx"`
	EdgeX      int     `json:"edgeX"`
	EdgeY      int     `json:"edgeY"`
	DataMin    float64 `json:"dataMin"`
	DataMax    float64 `json:"dataMax"`
	WeightsMin float64 `json:"weightsMin"`
	WeightsMax float64 `json:"weightsMax"`
}

func postGrid(c *gin.Context) {
	logWriter := c.Writer
	var args gridRequest
	if err := c.ShouldBind(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if err := printArgs(logWriter, "Arguments:\n", "\n", args); err != nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}

	spec, err := kernel.FromFloats(kernel.Kind(args.KernelKind), args.KernelParams)
	if err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		return
	}

	g, err := gridder.NewSightlineGridder(args.LonsDeg, args.LatsDeg, args.SpectralLen, gridder.Float64, nil, nil)
	if err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		return
	}
	if err := g.SetKernel(spec, args.SupportRadiusDeg, args.HpxMaxResolutionDeg); err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		return
	}
	if err := g.Grid(args.LonsDeg, args.LatsDeg, args.Data, args.Weights); err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		return
	}

	data := g.GetDatacube().([]float64)
	weights := g.GetWeights().([]float64)
	cc, ny, nx := g.Shape()

	resp := gridResponse{
		C: cc, Ny: ny, Nx: nx,
		EdgeX:      nx / 2, // truncating division, per spec.md's edge-coordinate convention
		EdgeY:      ny / 2,
		DataMin:    statMin(data),
		DataMax:    statMax(data),
		WeightsMin: statMin(weights),
		WeightsMax: statMax(weights),
	}
	if err := printArgs(logWriter, "Result:\n", "\n", resp); err != nil {
		fmt.Fprintf(logWriter, "Error printing result: %s\n", err.Error())
		return
	}
	logWriter.(http.Flusher).Flush()
}

func statMin(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		if !math.IsNaN(x) && x < m {
			m = x
		}
	}
	return m
}

func statMax(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		if !math.IsNaN(x) && x > m {
			m = x
		}
	}
	return m
}
