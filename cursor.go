package main

type cursor string

const (
	cursorAuto     cursor = "auto"
	cursorGrab     cursor = "grab"
	cursorGrabbing cursor = "grabbing"
)
