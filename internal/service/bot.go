package service

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"
)

const (
	minDifficulty = 1
	maxDifficulty = 10

	// How long a terminated bot gets to exit before it is killed.
	terminateTimeout = 2 * time.Second
)

// BotService launches and terminates CopperBot processes. A spawned bot
// connects back to the server as an ordinary player; rooms only ever hold the
// integer handle returned by Spawn, never the process itself.
type BotService struct {
	logger    *slog.Logger
	command   string
	serverURL string

	mu        sync.Mutex
	processes map[int]*botProcess
}

type botProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func NewBotService(logger *slog.Logger, command, serverURL string) *BotService {
	return &BotService{
		logger:    logger.With("component", "bots"),
		command:   command,
		serverURL: serverURL,
		processes: make(map[int]*botProcess),
	}
}

// Spawn starts one bot process at the clamped difficulty and returns its
// handle.
func (that *BotService) Spawn(difficulty int) (int, error) {
	log := that.logger.With("method", "Spawn")

	difficulty = clampDifficulty(difficulty)

	cmd := exec.Command(that.command,
		"--server", that.serverURL,
		"--difficulty", strconv.Itoa(difficulty),
		"--quiet",
	)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start bot process: %w", err)
	}

	proc := &botProcess{cmd: cmd, done: make(chan struct{})}
	handle := cmd.Process.Pid

	that.mu.Lock()
	that.processes[handle] = proc
	that.mu.Unlock()

	go that.reap(handle, proc)

	log.Info("bot spawned", "difficulty", difficulty, "pid", handle)

	return handle, nil
}

// SpawnPair starts two bots that will be matched against each other.
func (that *BotService) SpawnPair(first, second int) ([]int, error) {
	one, err := that.Spawn(first)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn first bot: %w", err)
	}

	two, err := that.Spawn(second)
	if err != nil {
		that.Terminate(one)
		return nil, fmt.Errorf("failed to spawn second bot: %w", err)
	}

	return []int{one, two}, nil
}

// Terminate requests a graceful shutdown and waits a bounded time before
// killing the process. The handle is dropped either way; termination is
// best-effort and never fatal to the caller.
func (that *BotService) Terminate(handle int) {
	log := that.logger.With("method", "Terminate", "pid", handle)

	that.mu.Lock()
	proc, ok := that.processes[handle]
	delete(that.processes, handle)
	that.mu.Unlock()

	if !ok {
		return
	}

	if err := proc.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		log.Warn("failed to signal bot process", "error", err)
	}

	select {
	case <-proc.done:
		log.Info("bot terminated")
	case <-time.After(terminateTimeout):
		log.Warn("bot did not exit in time, killing it")
		if err := proc.cmd.Process.Kill(); err != nil {
			log.Warn("failed to kill bot process", "error", err)
		}
	}
}

// reap waits for the process so it never becomes a zombie, and forgets the
// handle once it has exited on its own.
func (that *BotService) reap(handle int, proc *botProcess) {
	_ = proc.cmd.Wait()
	close(proc.done)

	that.mu.Lock()
	delete(that.processes, handle)
	that.mu.Unlock()
}

func clampDifficulty(difficulty int) int {
	if difficulty < minDifficulty {
		return minDifficulty
	}
	if difficulty > maxDifficulty {
		return maxDifficulty
	}
	return difficulty
}
