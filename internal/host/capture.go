package host

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// logCapture collects stdout and stderr of a host process line by line.
type logCapture struct {
	stdoutBuf    *bytes.Buffer
	stderrBuf    *bytes.Buffer
	stdoutReader *io.PipeReader
	stderrReader *io.PipeReader
	stdoutWriter *io.PipeWriter
	stderrWriter *io.PipeWriter
	wg           sync.WaitGroup
	mu           sync.RWMutex

	// onLine is called for every captured line when set.
	onLine func(stream, line string)
}

func newLogCapture(onLine func(stream, line string)) *logCapture {
	lc := &logCapture{
		stdoutBuf: &bytes.Buffer{},
		stderrBuf: &bytes.Buffer{},
		onLine:    onLine,
	}

	lc.stdoutReader, lc.stdoutWriter = io.Pipe()
	lc.stderrReader, lc.stderrWriter = io.Pipe()

	lc.wg.Add(2)
	go lc.captureOutput("stdout", lc.stdoutReader, lc.stdoutBuf)
	go lc.captureOutput("stderr", lc.stderrReader, lc.stderrBuf)

	return lc
}

func (lc *logCapture) captureOutput(stream string, reader io.Reader, buffer *bytes.Buffer) {
	defer lc.wg.Done()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()
		lc.mu.Lock()
		buffer.WriteString(line + "\n")
		lc.mu.Unlock()
		if lc.onLine != nil {
			lc.onLine(stream, line)
		}
	}
	// Drain so the writer never blocks after a scanner error.
	_, _ = io.Copy(io.Discard, reader)
}

// close flushes the pipes and waits for the readers.
func (lc *logCapture) close() {
	lc.stdoutWriter.Close()
	lc.stderrWriter.Close()
	lc.wg.Wait()
}

// combined returns stdout followed by stderr, each under a header.
func (lc *logCapture) combined() string {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	stdout := lc.stdoutBuf.String()
	stderr := lc.stderrBuf.String()

	combined := ""
	if stdout != "" {
		combined += "=== STDOUT ===\n" + stdout
	}
	if stderr != "" {
		if combined != "" {
			combined += "\n"
		}
		combined += "=== STDERR ===\n" + stderr
	}
	return combined
}

// lastStderrLine is used as the diagnostic of a failed unit.
func (lc *logCapture) lastStderrLine() string {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	lines := bytes.Split(bytes.TrimRight(lc.stderrBuf.Bytes(), "\n"), []byte("\n"))
	return string(lines[len(lines)-1])
}
