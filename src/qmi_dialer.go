package qmid

/*------------------------------------------------------------------
 *
 * Purpose:   	Event loop, service dispatch and teardown.
 *
 * Description:	Single thread, one suspension point: a level-triggered
 *		poll on the modem file descriptor plus a self-pipe.
 *		SIGINT/SIGTERM land on the pipe, so teardown always
 *		runs on the loop thread rather than inside a signal
 *		handler.
 *
 *		Every complete frame is dispatched to its service
 *		engine by the QMUX service byte.  A FAILURE verdict
 *		from CTL, NAS or WDS tears the session down and exits
 *		nonzero; DMS is lenient (a wrong PIN is not our call
 *		to die over).
 *
 * Usage:	qmid [options] [device]
 *
 *		With no device argument the first cdc-wdm node found
 *		via udev is used.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

/*
 * Dispatch table, indexed by the QMUX service byte.
 */

type qmi_service_t interface {
	service_type() uint8
	handle_msg(qmid *qmi_device, frame *qmux_frame) qmi_msg_status
	on_startup(qmid *qmi_device)
	on_shutdown(qmid *qmi_device)
}

var qmi_services = [...]qmi_service_t{
	QMI_SERVICE_CTL: ctl_service{},
	QMI_SERVICE_WDS: wds_service{},
	QMI_SERVICE_DMS: dms_service{},
	QMI_SERVICE_NAS: nas_service{},
}

/*-------------------------------------------------------------------
 *
 * Name:	handle_msg
 *
 * Purpose:	Dispatch one reassembled frame.
 *
 * Description:	Frames that do not parse are dropped.  Until the
 *		control channel is synced, everything but CTL is
 *		dropped too - the modem happily sends indications for
 *		sessions of previous processes.
 *
 *---------------------------------------------------------------*/

func handle_msg(qmid *qmi_device) qmi_msg_status {
	var buf = qmid.buf[:qmid.cur_qmux_length]

	qmid_dump_frame("recv", buf)

	var frame, err = parse_qmux_frame(buf)
	if err != nil {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_3 {
			qmid_log.Debug("Dropping malformed frame", "err", err)
		}
		return QMI_MSG_IGNORE
	}

	qmid.frames_rx++

	/* Ignore messages arriving before our sync ack. */
	if frame.service != QMI_SERVICE_CTL && qmid.ctl_state != CTL_SYNCED {
		return QMI_MSG_IGNORE
	}

	if int(frame.service) >= len(qmi_services) {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
			qmid_log.Debug("Message for non-supported service", "service", frame.service)
		}
		return QMI_MSG_IGNORE
	}

	var status = qmi_services[frame.service].handle_msg(qmid, frame)

	/* DMS failures are not fatal.  PIN retry policy belongs to a
	 * higher layer. */
	if status == QMI_MSG_FAILURE && frame.service == QMI_SERVICE_DMS {
		status = QMI_MSG_IGNORE
	}

	return status
}

/*-------------------------------------------------------------------
 *
 * Name:	qmi_cleanup
 *
 * Purpose:	Return the modem to a clean state.
 *
 * Description:	Best effort, in strict order: disable autoconnect,
 *		stop a live session, release every allocated CID,
 *		flush.  Send failures are logged and ignored - the
 *		modem processes what it got even if we exit right
 *		after.  It is nice to be important, but more important
 *		to be nice.
 *
 *---------------------------------------------------------------*/

func qmi_cleanup(qmid *qmi_device) {
	qmi_services[QMI_SERVICE_WDS].on_shutdown(qmid)

	if qmid.nas_id != 0 {
		qmi_ctl_update_cid(qmid, QMI_SERVICE_NAS, true, qmid.nas_id)
	}

	if qmid.wds_id != 0 {
		qmi_ctl_update_cid(qmid, QMI_SERVICE_WDS, true, qmid.wds_id)
	}

	if qmid.dms_id != 0 {
		qmi_ctl_update_cid(qmid, QMI_SERVICE_DMS, true, qmid.dms_id)
	}

	/* Make sure all the messages reach the device before the file
	 * descriptor goes away. */
	if qmid.qmi_file != nil {
		unix.Syncfs(int(qmid.qmi_file.Fd()))
	}

	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Info("Shutting down", "frames_rx", qmid.frames_rx, "frames_tx", qmid.frames_tx)
	}

	session_log_write("teardown", "released %d cids", qmid.ctl_num_cids)
	session_log_term()
}

/*-------------------------------------------------------------------
 *
 * Name:	qmid_run_eventloop
 *
 * Purpose:	Drive the dialer until shutdown or a fatal error.
 *
 * Inputs:	shutdown_fd	- Read side of the self-pipe.  One
 *				  readable byte means terminate.
 *
 * Returns:	true for a requested shutdown (exit 0), false for a
 *		fatal error (exit nonzero).  Teardown has run either
 *		way.
 *
 *---------------------------------------------------------------*/

func qmid_run_eventloop(qmid *qmi_device, shutdown_fd int) bool {
	var dev_fd = int(qmid.qmi_file.Fd())

	for {
		var fds = []unix.PollFd{
			{Fd: int32(dev_fd), Events: unix.POLLIN},
			{Fd: int32(shutdown_fd), Events: unix.POLLIN},
		}

		var _, err = unix.Poll(fds, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}

			if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
				qmid_log.Error("poll() failed", "err", err)
			}

			qmi_cleanup(qmid)
			return false
		}

		/* Drain pending device data before honoring a shutdown
		 * request, so a reply racing the signal is not lost. */
		if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			var status, err = read_data(qmid)
			if err != nil {
				qmid.qmi_file.Close()
				qmid.qmi_file = nil
				qmi_cleanup(qmid)
				return false
			}

			if status == QMI_MSG_FAILURE {
				if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
					qmid_log.Error("Fatal protocol failure, aborting")
				}
				qmi_cleanup(qmid)
				return false
			}

			continue
		}

		if fds[1].Revents&unix.POLLIN != 0 {
			qmi_cleanup(qmid)
			return true
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	QmidMain
 *
 * Purpose:	Entry point for the qmid binary.
 *
 * Returns:	Process exit code.
 *
 *---------------------------------------------------------------*/

func QmidMain() int {
	var verbose = pflag.IntP("verbose", "v", QMID_LOG_LEVEL_2, "Verbosity level, 1..3.")
	var pin = pflag.StringP("pin", "p", "", "SIM PIN code, when the SIM is locked.")
	var config_path = pflag.StringP("config", "c", "", "Config file (default: ./qmid.yaml, /etc/qmid.yaml).")
	var logfile = pflag.StringP("logfile", "L", "", "Append session events to this CSV file.")
	var logdir = pflag.StringP("logdir", "l", "", "Write daily session event CSV files into this directory.")
	pflag.Parse()

	var config = config_load(*config_path)

	if !pflag.CommandLine.Changed("verbose") && config.Verbose != 0 {
		*verbose = config.Verbose
	}
	if *pin == "" {
		*pin = config.Pin
	}

	qmid_set_verbosity(*verbose)

	var device = pflag.Arg(0)
	if device == "" {
		device = config.Device
	}
	if device == "" {
		var err error
		device, err = qmid_find_modem()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Usage: qmid [options] <device>\n")
			fmt.Fprintf(os.Stderr, "No QMI device found: %s\n", err)
			return 1
		}

		if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
			qmid_log.Info("Using discovered device", "device", device)
		}
	}

	switch {
	case *logfile != "":
		session_log_init(false, *logfile)
	case *logdir != "":
		session_log_init(true, *logdir)
	case config.SessionLog != "":
		session_log_init(false, config.SessionLog)
	}

	var qmid = &qmi_device{}
	qmi_device_init(qmid)
	qmid.pin_code = *pin

	/*
	 * The self-pipe keeps teardown on the event loop thread.
	 */

	var pipe_fds [2]int
	if err := unix.Pipe(pipe_fds[:]); err != nil {
		qmid_log.Error("Could not create shutdown pipe", "err", err)
		return 1
	}

	var signals = make(chan os.Signal, 1)
	signal.Notify(signals, unix.SIGINT, unix.SIGTERM)

	go func() {
		<-signals
		unix.Write(pipe_fds[1], []byte{0})
	}()

	if err := qmid_open_modem(qmid, device); err != nil {
		qmid_log.Error("Could not open modem", "device", device, "err", err)
		return 1
	}

	if qmid_run_eventloop(qmid, pipe_fds[0]) {
		return 0
	}

	return 1
}
