package transport

import (
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// USB-ISS virtual COM port identifiers.
const (
	VendorID  = "04D8"
	ProductID = "FFEE"
)

// listPorts is swapped in tests.
var listPorts = enumerator.GetDetailedPortsList

// ListAdapters returns the serial ports whose USB descriptor matches the
// USB-ISS, sorted by port name.
func ListAdapters() ([]*enumerator.PortDetails, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("could not enumerate serial ports: %w", err)
	}
	var found []*enumerator.PortDetails
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if strings.EqualFold(p.VID, VendorID) && strings.EqualFold(p.PID, ProductID) {
			found = append(found, p)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

// DetectAdapter picks the first USB-ISS port found on the system.
func DetectAdapter() (string, error) {
	ports, err := ListAdapters()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", ErrAdapterNotFound
	}
	return ports[0].Name, nil
}
