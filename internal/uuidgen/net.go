package uuidgen

import "net"

// netInterfaces returns the 6-byte hardware addresses of the host's
// network adapters, in the order net.Interfaces reports them.
func netInterfaces() ([][]byte, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var macs [][]byte
	for _, iface := range ifaces {
		if len(iface.HardwareAddr) == 6 {
			macs = append(macs, []byte(iface.HardwareAddr))
		}
	}
	return macs, nil
}
