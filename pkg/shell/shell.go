package shell

import (
	"os"
	"os/signal"
	"syscall"
)

// RunUntilSignal - block until SIGINT/SIGTERM or done is closed, nil signal for done
func RunUntilSignal(done <-chan struct{}) os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		return sig
	case <-done:
		return nil
	}
}
