package homebrew

import (
	"fmt"
	"strings"

	"github.com/dbehnke/dmrcore/pkg/config"
)

// rptcSize is the reference's homebrew_send_config layout, summed
// field-by-field: "RPTC"(4) + call(8) + hex id(8) + rx_freq(9) +
// tx_freq(9) + tx_power(2) + color_code(2) + latitude(8) + longitude(9)
// + altitude(3) + location(20) + description(20) + url(124) +
// software_id(40) + package_id(40) = 306 bytes. spec.md 6 states the
// frame is 302 bytes while separately itemizing these same widths
// (which sum to 306, not 302) -- a documented inconsistency in the
// distilled spec, resolved here in favor of the original source's
// actual field layout and dmr_raw_add* call sequence.
const rptcSize = 4 + 8 + 8 + 9 + 9 + 2 + 2 + 8 + 9 + 3 + 20 + 20 + 124 + 40 + 40

// buildRPTC encodes the configuration datagram sent once a peer's key
// exchange is accepted, grounded on homebrew_send_config's dmr_raw_addf
// call sequence (printf-style fixed-width fields, left-justified for
// strings, zero-padded for numbers).
func buildRPTC(repeaterID uint32, hb config.HomebrewConfig) []byte {
	b := strings.Builder{}
	b.Grow(rptcSize)
	b.WriteString(typeRPTC)
	fmt.Fprintf(&b, "%-8s", truncate(hb.Callsign, 8))
	fmt.Fprintf(&b, "%08x", repeaterID)
	fmt.Fprintf(&b, "%09d", hb.RXFreqHz)
	fmt.Fprintf(&b, "%09d", hb.TXFreqHz)
	fmt.Fprintf(&b, "%02d", minInt(int(hb.TXPowerW), 99))
	fmt.Fprintf(&b, "%02d", hb.ColorCode)
	fmt.Fprintf(&b, "%08.4f", hb.Latitude)
	fmt.Fprintf(&b, "%09.4f", hb.Longitude)
	fmt.Fprintf(&b, "%03d", minInt(int(hb.HeightM), 999))
	fmt.Fprintf(&b, "%-20s", truncate(orDefault(hb.Location, "Earth"), 20))
	fmt.Fprintf(&b, "%-20s", truncate(orDefault(hb.Description, "dmrcore"), 20))
	fmt.Fprintf(&b, "%-124s", truncate(hb.URL, 124))
	fmt.Fprintf(&b, "%-40s", truncate(orDefault(hb.SoftwareID, "dmrcore"), 40))
	fmt.Fprintf(&b, "%-40s", truncate(hb.PackageID, 40))
	return []byte(b.String())
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
