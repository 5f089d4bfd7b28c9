package qmid

/*------------------------------------------------------------------
 *
 * Purpose:	Save session lifecycle events to a log file.
 *
 * Description: Rather than leaving connection history buried in the
 *		debug output, write separated properties into CSV
 *		format for easy reading and later processing.
 *
 *		There are two alternatives here.
 *
 *		-L logfile	Specify full file path.
 *
 *		-l logdir	Daily names will be created here.
 *
 *		Use one or the other but not both.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
)

var g_daily_names bool
var g_log_path string
var g_log_fp *os.File
var g_open_fname string

/*------------------------------------------------------------------
 *
 * Function:	session_log_init
 *
 * Purpose:	Initialization at start of application.
 *
 * Inputs:	daily_names	- True if daily names should be generated.
 *				  In this case path is a directory.
 *				  When false, path would be the file name.
 *
 *		path		- Log file name or just directory.
 *				  Empty string disables feature.
 *
 *------------------------------------------------------------------*/

func session_log_init(daily_names bool, path string) {
	g_daily_names = daily_names
	g_log_path = ""
	g_log_fp = nil
	g_open_fname = ""

	if len(path) == 0 {
		return
	}

	if g_daily_names {
		var stat, statErr = os.Stat(path)

		if statErr == nil {
			if stat.IsDir() {
				g_log_path = path
			} else {
				qmid_log.Error("Log file location is not a directory, using \".\"", "path", path)
				g_log_path = "."
			}
		} else {
			// Parent directory must exist.  We don't create
			// multiple levels like "mkdir -p".
			var mkdirErr = os.Mkdir(path, 0755)
			if mkdirErr == nil {
				g_log_path = path
			} else {
				qmid_log.Error("Failed to create log file location, using \".\"",
					"path", path, "err", mkdirErr)
				g_log_path = "."
			}
		}
	} else {
		// Single file.  Typically logrotate would be used to
		// keep size under control.
		g_log_path = path
	}
}

/*------------------------------------------------------------------
 *
 * Function:	session_log_write
 *
 * Purpose:	Save one event to the log file.
 *
 * Inputs:	event	- Short event tag: sync, cid, service,
 *			  connect, disconnect, pkt_status, pin,
 *			  teardown.
 *
 *		format	- Human-readable detail, printf style.
 *
 *------------------------------------------------------------------*/

func session_log_write(event string, format string, a ...any) {
	if len(g_log_path) == 0 {
		return
	}

	var now = time.Now().UTC()

	if g_daily_names {
		// Generate the file name from current date, UTC.
		var fname, _ = strftime.Format("%Y-%m-%d.log", now)

		// Close current file if name has changed.
		if g_log_fp != nil && fname != g_open_fname {
			session_log_term()
		}

		if g_log_fp == nil {
			var full_path = filepath.Join(g_log_path, fname)

			var _, statErr = os.Stat(full_path)
			var already_there = statErr == nil

			var f, openErr = os.OpenFile(full_path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)
			if openErr != nil {
				qmid_log.Error("Can't open log file for write", "path", full_path, "err", openErr)
				g_open_fname = ""
				return
			}

			g_log_fp = f
			g_open_fname = fname

			// Write a header suitable for importing into a
			// spreadsheet, only if this is the first line.
			if !already_there {
				session_log_header()
			}
		}
	} else if g_log_fp == nil {
		var _, statErr = os.Stat(g_log_path)
		var already_there = statErr == nil

		var f, openErr = os.OpenFile(g_log_path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)
		if openErr != nil {
			qmid_log.Error("Can't open log file for write", "path", g_log_path, "err", openErr)
			g_log_path = ""
			return
		}

		g_log_fp = f

		if !already_there {
			session_log_header()
		}
	}

	var w = csv.NewWriter(g_log_fp)
	w.Write([]string{
		now.Format("2006-01-02 15:04:05"),
		event,
		fmt.Sprintf(format, a...),
	})
	w.Flush()
}

func session_log_header() {
	var w = csv.NewWriter(g_log_fp)
	w.Write([]string{"utc", "event", "detail"})
	w.Flush()
}

/*
 * Called at exit and when the date changes.
 */

func session_log_term() {
	if g_log_fp != nil {
		g_log_fp.Close()
		g_log_fp = nil
		g_open_fname = ""
	}
}
