package main

import (
	"errors"
	"strconv"
	"strings"
)

var errArgumentNumber = errors.New("invalid number of arguments")
var errInvalidCommand = errors.New("invalid command")

type consoleCommand func(v *viewer, args []float64) ([][]float64, error)

var consoleCommands = map[string]consoleCommand{
	"yaw":      cameraScalar(func(c *camera) *float64 { return &c.yaw }),
	"pitch":    cameraScalar(func(c *camera) *float64 { return &c.pitch }),
	"distance": cameraScalar(func(c *camera) *float64 { return &c.distance }),
	"camera": func(v *viewer, args []float64) ([][]float64, error) {
		if len(args) != 0 {
			return nil, errArgumentNumber
		}
		return [][]float64{{v.cam.yaw, v.cam.pitch, v.cam.distance}}, nil
	},
	"reset": func(v *viewer, args []float64) ([][]float64, error) {
		if len(args) != 0 {
			return nil, errArgumentNumber
		}
		v.cam.reset()
		v.requestRedraw()
		return [][]float64{{v.cam.yaw, v.cam.pitch, v.cam.distance}}, nil
	},
}

// cameraScalar reads the value without arguments and sets it with one.
func cameraScalar(field func(c *camera) *float64) consoleCommand {
	return func(v *viewer, args []float64) ([][]float64, error) {
		switch len(args) {
		case 0:
			return [][]float64{{*field(v.cam)}}, nil
		case 1:
			*field(v.cam) = args[0]
			v.cam.normalize()
			v.requestRedraw()
			return [][]float64{{*field(v.cam)}}, nil
		default:
			return nil, errArgumentNumber
		}
	}
}

// command runs one console line and formats the result rows with three
// decimals.
func (v *viewer) command(line string) (string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return "", nil
	}
	fn, ok := consoleCommands[args[0]]
	if !ok {
		return "", errInvalidCommand
	}
	var argsFloat []float64
	for i := 1; i < len(args); i++ {
		f, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return "", err
		}
		argsFloat = append(argsFloat, f)
	}
	res, err := fn(v, argsFloat)
	if err != nil {
		return "", err
	}
	var resStr []string
	for _, vv := range res {
		var resLine []string
		for _, f := range vv {
			resLine = append(resLine, strconv.FormatFloat(f, 'f', 3, 64))
		}
		resStr = append(resStr, strings.Join(resLine, " "))
	}
	return strings.Join(resStr, "\n"), nil
}
