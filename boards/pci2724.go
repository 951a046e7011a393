package boards

import "github.com/hubertat/pcidio/flags"

// PCI2724 is the Interface PCI/CPZ-2724 isolated 32 in / 32 out board.
var PCI2724 = &Profile{
	Name:     "pci2724",
	IoNumber: 32,

	DataBar:      0,
	InputOffset:  0x00,
	OutputOffset: 0x00,

	FlagBar: 0,
	In: flags.NewTable(
		[8]string{"IN1", "IN2", "IN3", "IN4", "IN5", "IN6", "IN7", "IN8"},
		[8]string{"IN9", "IN10", "IN11", "IN12", "IN13", "IN14", "IN15", "IN16"},
		[8]string{"IN17", "IN18", "IN19", "IN20", "IN21", "IN22", "IN23", "IN24"},
		[8]string{"IN25", "IN26", "IN27", "IN28", "IN29", "IN30", "IN31", "IN32"},
		[8]string{},
		[8]string{},
		[8]string{},
		[8]string{},
		[8]string{"IRIN2", "", "", "", "", "STB2", "ACKR2", "ACK2"},
		[8]string{"IRIN1", "", "", "", "LF", "ACK1", "STBR1", "STB1"},
		[8]string{"TD1", "TD2", "TD3", "TD4", "", "", "", ""},
		[8]string{"PORT0", "PORT1", "PORT2", "PORT3", "", "", "", ""},
		[8]string{"SIG1", "SIG2", "SIG3", "SIG4", "SIGT", "SIGR", "SIGRR", ""},
		[8]string{"SIG1", "SIG2", "SIG3", "SIG4", "SIGT", "SIGR", "", ""},
		[8]string{"SIG1", "SIG2", "SIG3", "SIG4", "EDS1", "EDS2", "EDS3", "EDS4"},
		[8]string{"BID0", "BID1", "BID2", "BID3", "", "", "", ""},
	),
	Out: flags.NewTable(
		[8]string{"OUT1", "OUT2", "OUT3", "OUT4", "OUT5", "OUT6", "OUT7", "OUT8"},
		[8]string{"OUT9", "OUT10", "OUT11", "OUT12", "OUT13", "OUT14", "OUT15", "OUT16"},
		[8]string{"OUT17", "OUT18", "OUT19", "OUT20", "OUT21", "OUT22", "OUT23", "OUT24"},
		[8]string{"OUT25", "OUT26", "OUT27", "OUT28", "OUT29", "OUT30", "OUT31", "OUT32"},
		[8]string{},
		[8]string{},
		[8]string{},
		[8]string{},
		[8]string{"", "", "", "PO10", "PO11", "PO12", "ACK10", "ACK11"},
		[8]string{"", "", "", "PO20", "PO21", "PO22", "STB20", "STB21"},
		[8]string{"TCTRL1", "TCTRL2", "TCTRL3", "TCTRL4", "SCK1", "SCK2", "SCK3", ""},
		[8]string{"PORT0", "PORT1", "PORT2", "PORT3", "", "", "", ""},
		[8]string{"SIG1", "SIG2", "SIG3", "SIG4", "SIGT", "SIGR", "", ""},
		[8]string{"SIG1", "SIG2", "SIG3", "SIG4", "SIGT", "SIGR", "", ""},
		[8]string{"SIG1", "SIG2", "SIG3", "SIG4", "EDS1", "EDS2", "EDS3", "EDS4"},
		[8]string{},
	),

	Selectors: map[Selector]Region{
		"IN1_8":   {Bar: 0, Offset: 0x00, Size: 1, Dir: Input},
		"IN9_16":  {Bar: 0, Offset: 0x01, Size: 1, Dir: Input},
		"IN17_24": {Bar: 0, Offset: 0x02, Size: 1, Dir: Input},
		"IN25_32": {Bar: 0, Offset: 0x03, Size: 1, Dir: Input},
		"IN1_16":  {Bar: 0, Offset: 0x00, Size: 2, Dir: Input},
		"IN17_32": {Bar: 0, Offset: 0x02, Size: 2, Dir: Input},
		"IN1_32":  {Bar: 0, Offset: 0x00, Size: 4, Dir: Input},

		"OUT1_8":   {Bar: 0, Offset: 0x00, Size: 1, Dir: Output},
		"OUT9_16":  {Bar: 0, Offset: 0x01, Size: 1, Dir: Output},
		"OUT17_24": {Bar: 0, Offset: 0x02, Size: 1, Dir: Output},
		"OUT25_32": {Bar: 0, Offset: 0x03, Size: 1, Dir: Output},
		"OUT1_16":  {Bar: 0, Offset: 0x00, Size: 2, Dir: Output},
		"OUT17_32": {Bar: 0, Offset: 0x02, Size: 2, Dir: Output},
		"OUT1_32":  {Bar: 0, Offset: 0x00, Size: 4, Dir: Output},
	},

	// latch disconnected, ACK1 and STB2 terminals left alone
	InitFlags: []InitFlag{
		{Register: 0x0b, Flags: ""},
		{Register: 0x08, Flags: ""},
		{Register: 0x09, Flags: ""},
	},

	LatchRegister:   0x0b,
	AckRegister:     0x08,
	StbRegister:     0x09,
	BoardIdRegister: 0x0f,
}
