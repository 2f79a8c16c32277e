package profile

// Default returns the built in profile tables. Every call returns a fresh copy.
func Default() Table {
	return Table{
		IFRate: DefaultIFRate,
		ASK: []ASK{
			{
				FilterRate: 4040,
				Decimation: 10,
				Rates: []Rate{
					{SymbolRate: 4040, AccessCodes: []string{"0101010101010101010110"}},
					{SymbolRate: 4667, AccessCodes: []string{"110011001100110011001011"}},
				},
			},
			{
				FilterRate: 8400,
				Decimation: 10,
				Rates: []Rate{
					{SymbolRate: 8189, AccessCodes: []string{"111111111111110010"}},
					{SymbolRate: 8400, AccessCodes: []string{"0101010101010101010101011001"}},
				},
			},
			{
				FilterRate: 10000,
				Decimation: 5,
				Rates: []Rate{
					{SymbolRate: 10000, AccessCodes: []string{"1010101010101010101010101001", "11110000111100001111000011110110"}},
				},
			},
		},
		FSK: []FSK{
			{
				Deviation:   38400,
				Decimation:  4,
				ChannelRate: 19200,
				Rates: []Rate{
					{SymbolRate: 19200, AccessCodes: []string{"01010101010101010101010110"}},
				},
			},
			{
				Deviation:   25000,
				Decimation:  4,
				ChannelRate: 20000,
				Rates: []Rate{
					{SymbolRate: 19200, AccessCodes: []string{"0101010101010101010101010101011001"}},
					{SymbolRate: 20000, AccessCodes: []string{"00111111001", "0101010101010101010101011100"}},
				},
			},
			{
				Deviation:   20000,
				Decimation:  4,
				ChannelRate: 20000,
				Rates: []Rate{
					{SymbolRate: 20000, AccessCodes: []string{"1010101010101010101010101010100110"}},
				},
			},
			{
				Deviation:   16000,
				Decimation:  4,
				ChannelRate: 19200,
				Rates: []Rate{
					{SymbolRate: 19200, AccessCodes: []string{"0101010101010101010101010110100101"}},
				},
			},
			{
				Deviation:   10000,
				Decimation:  8,
				ChannelRate: 10000,
				Rates: []Rate{
					{SymbolRate: 9600, AccessCodes: []string{"0101010101010101010101010101100110"}},
					{SymbolRate: 10000, AccessCodes: []string{"001010101010101010101001"}},
				},
			},
			{
				Deviation:   50000,
				Decimation:  4,
				ChannelRate: 19200,
				Rates: []Rate{
					{SymbolRate: 19200, AccessCodes: []string{"0101010101010101010101010101010110011001"}},
				},
			},
		},
	}
}
