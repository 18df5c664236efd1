//go:build !linux

package cwrap

import "os"

func adviseSequential(*os.File) {}
