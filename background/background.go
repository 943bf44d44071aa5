// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - run processes in the background
package background

// Process - type signature for background process
// and type that implements this Run is a process
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

// T - handle type for the stop
type T struct {
	s        []chan struct{}
	finished chan struct{}
}

// Start - start up a set of background processes
// all with the same arg value
func Start(processes Processes, args interface{}) *T {

	register := new(T)
	register.s = make([]chan struct{}, len(processes))
	register.finished = make(chan struct{})

	// start each background
	for i, p := range processes {
		shutdown := make(chan struct{})
		register.s[i] = shutdown
		go func(p Process, shutdown <-chan struct{}) {
			// pass the shutdown to the Run loop for shutdown signalling
			p.Run(args, shutdown)
			// flag for the stop routine to wait for shutdown
			register.finished <- struct{}{}
		}(p, shutdown)
	}
	return register
}

// Stop - stop a set of background processes
func (t *T) Stop() {

	if nil == t {
		return
	}

	// shutdown all background tasks
	for _, shutdown := range t.s {
		close(shutdown)
	}

	// wait for the finished
	for range t.s {
		<-t.finished
	}
}
