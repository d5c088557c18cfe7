// Package docker provides support for starting and stopping containers used by tests.
package docker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"
)

// ErrUnavailable is returned when the docker binary can not be found.
var ErrUnavailable = errors.New("docker is not available")

// Container tracks information about a running container.
type Container struct {
	Name     string
	HostPort string
}

type portBinding struct {
	HostIP   string `json:"HostIp"`
	HostPort string `json:"HostPort"`
}

type inspectInfo struct {
	NetworkSettings struct {
		Ports map[string][]portBinding `json:"Ports"`
	} `json:"NetworkSettings"`
}

// Available reports whether the docker cli is on the PATH.
func Available() bool {
	_, err := exec.LookPath("docker")
	return err == nil
}

// StartContainer starts a container of the image, reusing a running one with the
// same name, and returns the host address the given port is published on.
func StartContainer(image string, name string, port string, dockerArgs []string, appArgs []string) (Container, error) {
	if !Available() {
		return Container{}, ErrUnavailable
	}

	var lastErr error
	for attempt := range 3 {
		c, err := startContainer(image, name, port, dockerArgs, appArgs)
		if err == nil {
			return c, nil
		}

		lastErr = err
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}

	return Container{}, fmt.Errorf("starting container %s: %w", name, lastErr)
}

// StopContainer stops and removes the container with its volumes.
func StopContainer(name string) error {
	if err := exec.Command("docker", "stop", name).Run(); err != nil {
		return fmt.Errorf("stopping container %s: %w", name, err)
	}

	if err := exec.Command("docker", "rm", name, "-v").Run(); err != nil {
		return fmt.Errorf("removing container %s: %w", name, err)
	}

	return nil
}

// DumpContainerLogs returns the logs of the container, nil on failure.
func DumpContainerLogs(name string) []byte {
	out, err := exec.Command("docker", "logs", name).CombinedOutput()
	if err != nil {
		return nil
	}
	return out
}

func startContainer(image string, name string, port string, dockerArgs []string, appArgs []string) (Container, error) {
	if hostPort, err := publishedAddr(name, port); err == nil {
		return Container{Name: name, HostPort: hostPort}, nil
	}

	//a stopped container with the same name blocks "docker run".
	_ = exec.Command("docker", "rm", name, "-v").Run()

	args := []string{"run", "-P", "-d", "--name", name}
	args = append(args, dockerArgs...)
	args = append(args, image)
	args = append(args, appArgs...)

	var out bytes.Buffer
	cmd := exec.Command("docker", args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return Container{}, fmt.Errorf("docker run: %w", err)
	}

	id := strings.TrimSpace(out.String())
	if len(id) > 12 {
		id = id[:12]
	}

	hostPort, err := publishedAddr(id, port)
	if err != nil {
		_ = StopContainer(id)
		return Container{}, fmt.Errorf("published address: %w", err)
	}

	return Container{Name: name, HostPort: hostPort}, nil
}

func publishedAddr(container string, port string) (string, error) {
	var out bytes.Buffer
	cmd := exec.Command("docker", "inspect", container)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("docker inspect %s: %w", container, err)
	}

	var infos []inspectInfo
	if err := json.NewDecoder(&out).Decode(&infos); err != nil {
		return "", fmt.Errorf("decoding inspect output: %w", err)
	}

	if len(infos) == 0 {
		return "", fmt.Errorf("container %s not found", container)
	}

	for _, b := range infos[0].NetworkSettings.Ports[port+"/tcp"] {
		if b.HostIP == "::" {
			continue
		}

		ip := b.HostIP
		if ip == "" || ip == "0.0.0.0" {
			ip = "localhost"
		}
		return net.JoinHostPort(ip, b.HostPort), nil
	}

	return "", fmt.Errorf("no published address for %s/tcp on %s", port, container)
}
