package bitquery

import "fmt"

// PumpFunProgram is the pump.fun program ID.
const PumpFunProgram = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

// NewestQuery returns tokens created by the pump.fun "create" instruction
// within the last $minutes, most recent first.
var NewestQuery = fmt.Sprintf(`
query NewPumpCreates($minutes:Int!, $limit:Int!) {
  Solana {
    TokenSupplyUpdates(
      where:{
        Instruction:{ Program:{ Address:{ is: "%s" }, Method:{ is:"create" } } }
        Block:{ Time:{ since_relative:{ minutes_ago:$minutes } } }
      }
      orderBy:{ descending: Block_Time }
      limit:{ count:$limit }
    ){
      TokenSupplyUpdate{
        Currency{ MintAddress Name Symbol Uri }
      }
    }
  }
}
`, PumpFunProgram)

// TopMoversQuery returns tokens traded on pump.fun within the last $hours,
// ranked by 5-minute market-cap percentage change.
var TopMoversQuery = fmt.Sprintf(`
query TopBy5m($hours:Int!, $limit:Int!) {
  Solana {
    DEXTradeByTokens(
      limit:{ count:$limit }
      orderBy:{ descendingByField:"Marketcap_Change_5min" }
      where:{
        Trade:{ Dex:{ ProgramAddress:{ is:"%s" } } }
        Transaction:{ Result:{ Success:true } }
        Block:{ Time:{ since_relative:{ hours_ago:$hours } } }
      }
    ){
      Trade{
        Currency{ MintAddress Name Symbol }
        Price_5min_ago: PriceInUSD(minimum: Block_Time, if:{ Block:{ Time:{ since_relative:{ minutes_ago:5 } } } })
        CurrentPrice:   PriceInUSD(maximum: Block_Time)
      }
      Marketcap_Change_5min: calculate(expression: "(($Trade_CurrentPrice - $Trade_Price_5min_ago) / $Trade_Price_5min_ago) * 100")
    }
  }
}
`, PumpFunProgram)

// CreationsSubscription streams every new pump.fun token creation.
var CreationsSubscription = fmt.Sprintf(`
subscription {
  Solana {
    TokenSupplyUpdates(
      where: {
        Instruction: {
          Program: { Address: { is: "%s" }, Method: { is: "create" } }
        }
      }
    ) {
      Block { Time { iso8601 } }
      Transaction { Signer }
      TokenSupplyUpdate {
        Currency {
          Name
          Symbol
          MintAddress
          Uri
          UpdateAuthority
          Decimals
        }
      }
    }
  }
}
`, PumpFunProgram)
