package testevents

import (
	"strings"
	"time"
)

const defaultTestTimeout = 5 * time.Second

func repeat(s string, n int) string { return strings.Repeat(s, n) }
