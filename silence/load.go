package silence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/netdata/health-engine/types"
)

// MaxSilencersFileLen bounds the silencer file size, mirroring
// health.c's HEALTH_SILENCERS_MAX_FILE_LEN.
const MaxSilencersFileLen = 20 * 1024 * 1024

// LoadFile reads and parses the silencer ruleset from path, replacing
// e's active ruleset on success (spec.md §6, §7: "Silencer file
// missing or malformed: logged; engine continues with empty
// silencers"). It never returns an error to the caller — the
// evaluation loop must start regardless of this file's state — but
// logs what happened.
func LoadFile(e *Engine, path string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Warn("cannot open health silencers file", "path", path, "err", err)
		return
	}

	size := info.Size()
	if size == 0 || size >= MaxSilencersFileLen {
		logger.Error("health silencers file size is out of range, aborting read",
			"path", path, "size", size, "max", MaxSilencersFileLen)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("cannot read health silencers file", "path", path, "err", err)
		return
	}

	rs, err := parse(data)
	if err != nil {
		logger.Warn("cannot parse health silencers file", "path", path, "err", err)
		return
	}

	e.Replace(rs)
	logger.Info("parsed health silencers file", "path", path, "count", len(rs.Silencers))
}

func parse(data []byte) (types.Silencers, error) {
	var rs types.Silencers
	if err := json.Unmarshal(data, &rs); err != nil {
		return types.Silencers{}, fmt.Errorf("decode silencers json: %w", err)
	}
	return rs, nil
}
