package ble

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

var ErrNoAdapters = errors.New("no bluetooth adapters found")

const sysfsBluetoothPath = "/sys/class/bluetooth"

// ListAdapters returns the IDs of the HCI adapters known to the kernel.
func ListAdapters() ([]int, error) {
	return listAdapters(sysfsBluetoothPath)
}

func listAdapters(root string) ([]int, error) {
	entries, err := os.ReadDir(root)

	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoAdapters
	} else if err != nil {
		return nil, fmt.Errorf("failed to enumerate bluetooth adapters: %w", err)
	}

	var ids []int

	for _, entry := range entries {
		name := entry.Name()

		// skip connection entries such as `hci0:12`.
		if !strings.HasPrefix(name, "hci") || strings.Contains(name, ":") {
			continue
		}

		id, err := strconv.Atoi(strings.TrimPrefix(name, "hci"))

		if err != nil {
			continue
		}

		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, ErrNoAdapters
	}

	sort.Ints(ids)

	return ids, nil
}
